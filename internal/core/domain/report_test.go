package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunReport_Succeeded(t *testing.T) {
	tests := []struct {
		name      string
		report    RunReport
		succeeded bool
	}{
		{"clean run", RunReport{Anonymised: 10, Protected: 5}, true},
		{"repaired titles are warnings", RunReport{TitlesRepaired: 3}, true},
		{"write failures retried next run", RunReport{WriteFailures: 2}, true},
		{"protected field overwritten", RunReport{ProtectedFieldAnomalies: 1}, false},
		{"work-linked entity mis-flagged", RunReport{WorkLinkAnomalies: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.succeeded, tt.report.Succeeded())
		})
	}
}

func TestRunReport_Duration(t *testing.T) {
	start := time.Now()
	r := RunReport{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, r.Duration())
}
