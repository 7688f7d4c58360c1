package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorPolicy_Acceptable_Authorised(t *testing.T) {
	policy := AuthorPolicy{
		Authorised:      []string{"Valerio Rossi", "vrossi"},
		NeutralPatterns: DefaultNeutralPatterns,
	}

	tests := []struct {
		name       string
		value      string
		acceptable bool
	}{
		{"exact authorised name", "Valerio Rossi", true},
		{"authorised name different case", "VALERIO ROSSI", true},
		{"authorised name embedded", "doc by Valerio Rossi 1998", true},
		{"authorised short form", "vrossi", true},
		{"unknown personal name", "Jane Doe", false},
		{"another personal name", "Mario Bianchi", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.acceptable, policy.Acceptable(tt.value))
		})
	}
}

func TestAuthorPolicy_Acceptable_NeutralPatterns(t *testing.T) {
	policy := AuthorPolicy{NeutralPatterns: DefaultNeutralPatterns}

	tests := []struct {
		name       string
		value      string
		acceptable bool
	}{
		{"system account", "admin", true},
		{"system account uppercase", "Administrator", true},
		{"software name", "Adobe InDesign 2.0", true},
		{"machine prefix", "PC-UFFICIO", true},
		{"windows account", "Windows User", true},
		{"personal name", "Jane Doe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.acceptable, policy.Acceptable(tt.value))
		})
	}
}

func TestAuthorPolicy_Acceptable_EmptyValue(t *testing.T) {
	policy := AuthorPolicy{}

	assert.True(t, policy.Acceptable(""))
	assert.True(t, policy.Acceptable("   "))
	// With no authorised names and no patterns, anything non-empty is redacted.
	assert.False(t, policy.Acceptable("anyone"))
}
