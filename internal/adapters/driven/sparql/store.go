package sparql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.EntityStore = (*Store)(nil)

// Graphs names the graphs one run operates on. Structure graphs hold the
// Record/RecordSet descriptions, the enrichment graph holds Title labels,
// and the technical-metadata graphs hold per-file extracted metadata.
type Graphs struct {
	Structure    []string
	Enrichment   string
	TechMetadata []string
}

// Store is the SPARQL-backed EntityStore.
type Store struct {
	client *Client
	graphs Graphs
}

// NewStore wraps a client with the graph layout of the archive.
func NewStore(client *Client, graphs Graphs) *Store {
	return &Store{client: client, graphs: graphs}
}

const (
	prefixRico = "PREFIX rico: <https://www.ica.org/standards/RiC/ontology#>\n"
	prefixRdfs = "PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>\n"
	prefixRdf  = "PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>\n"
	prefixBodi = "PREFIX bodi: <http://w3id.org/bodi#>\n"
	prefixLrm  = "PREFIX lrmoo: <http://iflastandards.info/ns/lrm/lrmoo/>\n"

	// readChunk bounds VALUES clauses in read queries, writeChunk in
	// updates. Large VALUES lists degrade Blazegraph query planning.
	readChunk  = 500
	writeChunk = 200
)

// Ping verifies the endpoint answers a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Select(ctx, "SELECT (1 AS ?ping) WHERE {}")
	return err
}

// Entities returns every Record and RecordSet in the structure graphs.
func (s *Store) Entities(ctx context.Context) ([]domain.EntityRef, error) {
	var refs []domain.EntityRef
	for _, graph := range s.graphs.Structure {
		query := prefixRico + fmt.Sprintf(`
SELECT ?entity ?kind WHERE {
  GRAPH <%s> {
    { ?entity a rico:Record . BIND("Record" AS ?kind) }
    UNION
    { ?entity a rico:RecordSet . BIND("RecordSet" AS ?kind) }
  }
}`, graph)
		bindings, err := s.client.Select(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("list entities in %s: %w", graph, err)
		}
		for _, b := range bindings {
			refs = append(refs, domain.EntityRef{
				URI:   b["entity"].Value,
				Kind:  domain.EntityKind(b["kind"].Value),
				Graph: graph,
			})
		}
	}
	return refs, nil
}

// WorkLinked reports which of the given entities relate to a Work.
func (s *Store) WorkLinked(ctx context.Context, uris []string) (map[string]bool, error) {
	linked := make(map[string]bool)
	for _, chunk := range chunkStrings(uris, readChunk) {
		query := prefixRico + prefixLrm + fmt.Sprintf(`
SELECT DISTINCT ?entity WHERE {
  VALUES ?entity { %s }
  ?entity rico:isRelatedTo ?work .
  ?work a lrmoo:F1_Work .
}`, uriRefs(chunk))
		bindings, err := s.client.Select(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("work links: %w", err)
		}
		for _, b := range bindings {
			linked[b["entity"].Value] = true
		}
	}
	return linked, nil
}

// HierarchyParents fetches the full child-to-parents inclusion map.
func (s *Store) HierarchyParents(ctx context.Context) (map[string][]string, error) {
	parents := make(map[string][]string)
	for _, graph := range s.graphs.Structure {
		query := prefixRico + fmt.Sprintf(`
SELECT ?child ?parent WHERE {
  GRAPH <%s> { ?child rico:isOrWasIncludedIn ?parent }
}`, graph)
		bindings, err := s.client.Select(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("hierarchy in %s: %w", graph, err)
		}
		for _, b := range bindings {
			child := b["child"].Value
			parents[child] = append(parents[child], b["parent"].Value)
		}
	}
	return parents, nil
}

// LinkedTitles returns the Title entities of the given entities with their
// current labels from the enrichment graph.
func (s *Store) LinkedTitles(ctx context.Context, uris []string) ([]domain.TitleLink, error) {
	var links []domain.TitleLink
	for _, chunk := range chunkStrings(uris, readChunk) {
		query := prefixRico + prefixRdfs + fmt.Sprintf(`
SELECT ?entity ?title ?label WHERE {
  GRAPH <%s> {
    VALUES ?entity { %s }
    ?entity rico:hasOrHadTitle ?title .
    ?title a rico:Title .
    OPTIONAL { ?title rdfs:label ?label }
  }
}`, s.graphs.Enrichment, uriRefs(chunk))
		bindings, err := s.client.Select(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("linked titles: %w", err)
		}
		for _, b := range bindings {
			links = append(links, domain.TitleLink{
				EntityURI: b["entity"].Value,
				TitleURI:  b["title"].Value,
				Label:     b["label"].Value,
			})
		}
	}
	return links, nil
}

// Instantiations returns the instantiation URIs of the given entities.
func (s *Store) Instantiations(ctx context.Context, uris []string) ([]string, error) {
	var insts []string
	seen := make(map[string]bool)
	for _, graph := range s.graphs.Structure {
		for _, chunk := range chunkStrings(uris, readChunk) {
			query := prefixRico + fmt.Sprintf(`
SELECT DISTINCT ?instantiation WHERE {
  GRAPH <%s> {
    VALUES ?entity { %s }
    ?entity rico:hasOrHadInstantiation ?instantiation .
  }
}`, graph, uriRefs(chunk))
			bindings, err := s.client.Select(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("instantiations in %s: %w", graph, err)
			}
			for _, b := range bindings {
				uri := b["instantiation"].Value
				if !seen[uri] {
					seen[uri] = true
					insts = append(insts, uri)
				}
			}
		}
	}
	return insts, nil
}

// AuthorFields returns the scannable author-type fields of the given
// entities and their instantiations across all technical-metadata graphs.
// Fields already carrying the placeholder are included; filtering them is
// the caller's concern.
func (s *Store) AuthorFields(ctx context.Context, uris []string) ([]domain.AuthorField, error) {
	insts, err := s.Instantiations(ctx, uris)
	if err != nil {
		return nil, err
	}
	holders := make([]string, 0, len(uris)+len(insts))
	holders = append(holders, uris...)
	holders = append(holders, insts...)

	typeFilter := literalList(domain.AuthorFieldTypesToScan)

	var fields []domain.AuthorField
	for _, graph := range s.graphs.TechMetadata {
		for _, chunk := range chunkStrings(holders, writeChunk) {
			query := prefixBodi + prefixRdf + prefixRdfs + fmt.Sprintf(`
SELECT DISTINCT ?tm ?type ?value ?label WHERE {
  GRAPH <%s> {
    VALUES ?holder { %s }
    ?holder bodi:hasTechnicalMetadata ?tm .
    ?tm a bodi:TechnicalMetadata ;
        bodi:hasTechnicalMetadataType ?typeUri .
    ?typeUri rdfs:label ?type .
    FILTER(STR(?type) IN (%s))
    OPTIONAL { ?tm rdf:value ?value }
    OPTIONAL { ?tm rdfs:label ?label }
  }
}`, graph, uriRefs(chunk), typeFilter)
			bindings, err := s.client.Select(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("author fields in %s: %w", graph, err)
			}
			for _, b := range bindings {
				fields = append(fields, domain.AuthorField{
					FieldURI: b["tm"].Value,
					Graph:    graph,
					Type:     b["type"].Value,
					Value:    b["value"].Value,
					Label:    b["label"].Value,
				})
			}
		}
	}
	return fields, nil
}

// MarkAnonymised rewrites label, title and redaction flag of each entity to
// the placeholder state, scoped to the entity's graph. The delete-then-insert
// shape makes the update idempotent.
func (s *Store) MarkAnonymised(ctx context.Context, refs []domain.EntityRef) error {
	placeholder := escapeLiteral(domain.Placeholder)
	for graph, uris := range groupByGraph(refs) {
		for _, chunk := range chunkStrings(uris, writeChunk) {
			update := prefixRdfs + prefixRico + prefixBodi + fmt.Sprintf(`
DELETE {
  GRAPH <%[1]s> {
    ?entity rdfs:label ?oldLabel .
    ?entity rico:title ?oldTitle .
    ?entity bodi:redactedInformation ?oldFlag .
  }
}
INSERT {
  GRAPH <%[1]s> {
    ?entity rdfs:label %[2]s .
    ?entity rico:title %[2]s .
    ?entity bodi:redactedInformation %[3]s .
  }
}
WHERE {
  GRAPH <%[1]s> {
    VALUES ?entity { %[4]s }
    OPTIONAL { ?entity rdfs:label ?oldLabel }
    OPTIONAL { ?entity rico:title ?oldTitle }
    OPTIONAL { ?entity bodi:redactedInformation ?oldFlag }
  }
}`, graph, placeholder, escapeLiteral(domain.RedactedYes), uriRefs(chunk))
			if err := s.client.Update(ctx, update); err != nil {
				return fmt.Errorf("mark anonymised in %s: %w", graph, err)
			}
		}
	}
	return nil
}

// MarkProtected sets the redaction flag to no, leaving everything else alone.
func (s *Store) MarkProtected(ctx context.Context, refs []domain.EntityRef) error {
	for graph, uris := range groupByGraph(refs) {
		for _, chunk := range chunkStrings(uris, writeChunk) {
			update := prefixBodi + fmt.Sprintf(`
DELETE { GRAPH <%[1]s> { ?entity bodi:redactedInformation ?oldFlag } }
INSERT { GRAPH <%[1]s> { ?entity bodi:redactedInformation %[2]s } }
WHERE {
  GRAPH <%[1]s> {
    VALUES ?entity { %[3]s }
    OPTIONAL { ?entity bodi:redactedInformation ?oldFlag }
  }
}`, graph, escapeLiteral(domain.RedactedNo), uriRefs(chunk))
			if err := s.client.Update(ctx, update); err != nil {
				return fmt.Errorf("mark protected in %s: %w", graph, err)
			}
		}
	}
	return nil
}

// RedactTitleLabels rewrites Title labels in the enrichment graph.
func (s *Store) RedactTitleLabels(ctx context.Context, titleURIs []string) error {
	for _, chunk := range chunkStrings(titleURIs, writeChunk) {
		update := prefixRdfs + fmt.Sprintf(`
DELETE { GRAPH <%[1]s> { ?title rdfs:label ?oldLabel } }
INSERT { GRAPH <%[1]s> { ?title rdfs:label %[2]s } }
WHERE {
  GRAPH <%[1]s> {
    VALUES ?title { %[3]s }
    OPTIONAL { ?title rdfs:label ?oldLabel }
  }
}`, s.graphs.Enrichment, escapeLiteral(domain.Placeholder), uriRefs(chunk))
		if err := s.client.Update(ctx, update); err != nil {
			return fmt.Errorf("redact titles: %w", err)
		}
	}
	return nil
}

// RedactInstantiationLabels rewrites instantiation labels wherever they
// live. Instantiation labels are not confined to one named graph, so the
// update is deliberately unscoped.
func (s *Store) RedactInstantiationLabels(ctx context.Context, instURIs []string) error {
	for _, chunk := range chunkStrings(instURIs, writeChunk) {
		update := prefixRdfs + fmt.Sprintf(`
DELETE { ?inst rdfs:label ?oldLabel . }
INSERT { ?inst rdfs:label %s . }
WHERE {
  VALUES ?inst { %s }
  OPTIONAL { ?inst rdfs:label ?oldLabel }
}`, escapeLiteral(domain.Placeholder), uriRefs(chunk))
		if err := s.client.Update(ctx, update); err != nil {
			return fmt.Errorf("redact instantiation labels: %w", err)
		}
	}
	return nil
}

// RedactAuthorMetadata rewrites the whitelisted author-type fields of the
// given instantiations across all technical-metadata graphs.
func (s *Store) RedactAuthorMetadata(ctx context.Context, instURIs []string) error {
	placeholder := escapeLiteral(domain.Placeholder)
	typeFilter := literalList(domain.AuthorFieldTypes)
	for _, graph := range s.graphs.TechMetadata {
		for _, chunk := range chunkStrings(instURIs, writeChunk) {
			update := prefixBodi + prefixRdf + prefixRdfs + fmt.Sprintf(`
DELETE { GRAPH <%[1]s> { ?tm rdf:value ?oldValue . ?tm rdfs:label ?oldLabel . } }
INSERT { GRAPH <%[1]s> { ?tm rdf:value %[2]s . ?tm rdfs:label %[2]s . } }
WHERE {
  GRAPH <%[1]s> {
    VALUES ?inst { %[3]s }
    ?inst bodi:hasTechnicalMetadata ?tm .
    ?tm a bodi:TechnicalMetadata ;
        bodi:hasTechnicalMetadataType ?typeUri .
    ?typeUri rdfs:label ?type .
    FILTER(STR(?type) IN (%[4]s))
    OPTIONAL { ?tm rdf:value ?oldValue }
    OPTIONAL { ?tm rdfs:label ?oldLabel }
  }
}`, graph, placeholder, uriRefs(chunk), typeFilter)
			if err := s.client.Update(ctx, update); err != nil {
				return fmt.Errorf("redact author metadata in %s: %w", graph, err)
			}
		}
	}
	return nil
}

// RedactFields rewrites specific technical-metadata nodes to the placeholder.
func (s *Store) RedactFields(ctx context.Context, fields []domain.AuthorField) error {
	byGraph := make(map[string][]string)
	for _, f := range fields {
		byGraph[f.Graph] = append(byGraph[f.Graph], f.FieldURI)
	}
	placeholder := escapeLiteral(domain.Placeholder)
	for graph, uris := range byGraph {
		for _, chunk := range chunkStrings(uris, 100) {
			update := prefixRdf + prefixRdfs + fmt.Sprintf(`
DELETE { GRAPH <%[1]s> { ?tm rdf:value ?oldValue . ?tm rdfs:label ?oldLabel . } }
INSERT { GRAPH <%[1]s> { ?tm rdf:value %[2]s . ?tm rdfs:label %[2]s . } }
WHERE {
  GRAPH <%[1]s> {
    VALUES ?tm { %[3]s }
    OPTIONAL { ?tm rdf:value ?oldValue }
    OPTIONAL { ?tm rdfs:label ?oldLabel }
  }
}`, graph, placeholder, uriRefs(chunk))
			if err := s.client.Update(ctx, update); err != nil {
				return fmt.Errorf("redact fields in %s: %w", graph, err)
			}
		}
	}
	return nil
}

// ProtectedFieldAnomalies finds protected field types carrying the
// placeholder value, grouped by type and graph.
func (s *Store) ProtectedFieldAnomalies(ctx context.Context) ([]domain.FieldAnomaly, error) {
	typeFilter := literalList(domain.ProtectedFieldTypes)
	var anomalies []domain.FieldAnomaly
	for _, graph := range s.graphs.TechMetadata {
		query := prefixBodi + prefixRdf + prefixRdfs + fmt.Sprintf(`
SELECT ?type (COUNT(*) AS ?count) WHERE {
  GRAPH <%s> {
    ?tm a bodi:TechnicalMetadata ;
        bodi:hasTechnicalMetadataType ?typeUri ;
        rdf:value %s .
    ?typeUri rdfs:label ?type .
    FILTER(STR(?type) IN (%s))
  }
}
GROUP BY ?type`, graph, escapeLiteral(domain.Placeholder), typeFilter)
		bindings, err := s.client.Select(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("protected field scan in %s: %w", graph, err)
		}
		for _, b := range bindings {
			count, err := atoiBinding(b["count"].Value)
			if err != nil {
				return nil, fmt.Errorf("protected field scan in %s: %w", graph, err)
			}
			anomalies = append(anomalies, domain.FieldAnomaly{
				Type:  b["type"].Value,
				Graph: graph,
				Count: count,
			})
		}
	}
	return anomalies, nil
}

// MisflaggedWorkEntities finds work-linked entities flagged as anonymised.
func (s *Store) MisflaggedWorkEntities(ctx context.Context) ([]string, error) {
	query := prefixRico + prefixLrm + prefixBodi + fmt.Sprintf(`
SELECT DISTINCT ?entity WHERE {
  ?entity rico:isRelatedTo ?work .
  ?work a lrmoo:F1_Work .
  ?entity bodi:redactedInformation %s .
}`, escapeLiteral(domain.RedactedYes))
	bindings, err := s.client.Select(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("work protection scan: %w", err)
	}
	uris := make([]string, 0, len(bindings))
	for _, b := range bindings {
		uris = append(uris, b["entity"].Value)
	}
	return uris, nil
}

func atoiBinding(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("non-numeric count %q", value)
	}
	return n, nil
}

func groupByGraph(refs []domain.EntityRef) map[string][]string {
	byGraph := make(map[string][]string)
	for _, ref := range refs {
		byGraph[ref.Graph] = append(byGraph[ref.Graph], ref.URI)
	}
	return byGraph
}
