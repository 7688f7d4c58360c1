package services

import (
	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/logger"
)

// Classifier assigns a privacy verdict to every Record and RecordSet.
// The decision is a pure function of work-linkage, whitelist membership,
// blacklist membership and blacklist ancestry; protection always wins by
// evaluation order, not by a separate conflict-resolution step.
type Classifier struct {
	blacklist driven.NameList
	whitelist driven.NameList
}

// NewClassifier creates a classifier over the two name lists.
func NewClassifier(blacklist, whitelist driven.NameList) *Classifier {
	return &Classifier{blacklist: blacklist, whitelist: whitelist}
}

// Decide evaluates the precedence rules for one entity, first match wins:
//
//  1. work-linked            -> protect
//  2. whitelisted            -> protect
//  3. blacklisted            -> anonymise
//  4. ancestor blacklisted   -> anonymise
//  5. default                -> protect
func Decide(workLinked, whitelisted, blacklisted, ancestorBlacklisted bool) domain.Verdict {
	switch {
	case workLinked:
		return domain.VerdictProtect
	case whitelisted:
		return domain.VerdictProtect
	case blacklisted:
		return domain.VerdictAnonymise
	case ancestorBlacklisted:
		return domain.VerdictAnonymise
	default:
		return domain.VerdictProtect
	}
}

// Classify computes the verdict map for all entities. workLinked marks
// entities related to a Work; parents is the full child-to-parents map of
// the "included in" relation, used to compute blacklist ancestry by closure
// rather than immediate parent only.
func (c *Classifier) Classify(
	entities []domain.EntityRef,
	workLinked map[string]bool,
	parents map[string][]string,
) map[string]domain.Verdict {
	anc := newAncestryIndex(c.blacklist, parents)

	verdicts := make(map[string]domain.Verdict, len(entities))
	for _, e := range entities {
		verdicts[e.URI] = Decide(
			workLinked[e.URI],
			c.whitelist.Contains(e.URI),
			c.blacklist.Contains(e.URI),
			anc.blacklisted(e.URI),
		)
	}

	var anonymise int
	for _, v := range verdicts {
		if v == domain.VerdictAnonymise {
			anonymise++
		}
	}
	logger.Info("Classified %d entities: %d to anonymise, %d to protect",
		len(verdicts), anonymise, len(verdicts)-anonymise)

	return verdicts
}

// ancestryIndex memoises "has a blacklisted ancestor" over the parent map,
// keeping the check near-linear in entity count.
type ancestryIndex struct {
	blacklist driven.NameList
	parents   map[string][]string
	memo      map[string]bool
}

func newAncestryIndex(blacklist driven.NameList, parents map[string][]string) *ancestryIndex {
	return &ancestryIndex{
		blacklist: blacklist,
		parents:   parents,
		memo:      make(map[string]bool, len(parents)),
	}
}

func (a *ancestryIndex) blacklisted(uri string) bool {
	return a.walk(uri, map[string]bool{uri: true})
}

// walk follows parent pointers transitively. visiting guards against cycles
// in malformed hierarchies; a cycle contributes nothing.
func (a *ancestryIndex) walk(uri string, visiting map[string]bool) bool {
	if v, ok := a.memo[uri]; ok {
		return v
	}
	result := false
	for _, parent := range a.parents[uri] {
		if visiting[parent] {
			continue
		}
		if a.blacklist.Contains(parent) {
			result = true
			break
		}
		visiting[parent] = true
		if a.walk(parent, visiting) {
			result = true
			break
		}
	}
	a.memo[uri] = result
	return result
}
