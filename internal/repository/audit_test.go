package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmgx-twin-server/internal/domain"
)

func TestEntryFromReport(t *testing.T) {
	generated := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	report := &domain.AssessmentReport{
		RequestID:      "req-1",
		DatasetVersion: "cpic-2024.1",
		GCIScore:       85.7,
		VariantCount:   12,
		GeneratedAt:    generated,
		Drugs: []*domain.DrugReport{
			{
				Assessment: &domain.DrugRiskAssessment{
					Drug: "CODEINE", Gene: "CYP2D6",
					RiskLabel: "Adjust Dosage", Severity: domain.SeverityModerate,
					DetectedVariants: []domain.DetectedVariant{
						{RSID: "rs3892097", Genotype: "1/1", Impact: domain.ImpactNoFunction},
					},
				},
			},
			{
				Assessment: &domain.DrugRiskAssessment{
					Drug: "IBUPROFEN", RiskLabel: "Unknown", Severity: domain.SeverityLow,
				},
			},
			nil,
		},
	}

	entry := EntryFromReport(report, 1500*time.Millisecond)

	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, 3, entry.DrugCount)
	assert.Equal(t, 12, entry.VariantCount)
	assert.Equal(t, int64(1500), entry.DurationMS)
	assert.Equal(t, generated, entry.CreatedAt)

	require.Len(t, entry.DrugRisks, 2, "nil reports are skipped")
	assert.True(t, entry.DrugRisks[0].KnownDrug)
	assert.False(t, entry.DrugRisks[1].KnownDrug, "unknown drugs carry no gene")
}

// The audit trail must stay de-identified: nothing genomic may survive the
// report-to-entry mapping.
func TestEntryFromReport_CarriesNoGenomicData(t *testing.T) {
	report := &domain.AssessmentReport{
		RequestID: "req-2",
		Drugs: []*domain.DrugReport{
			{
				Assessment: &domain.DrugRiskAssessment{
					Drug:      "CLOPIDOGREL",
					Gene:      "CYP2C19",
					Diplotype: "*2/*2",
					RiskLabel: "Adjust Dosage",
					DetectedVariants: []domain.DetectedVariant{
						{RSID: "rs4244285", Genotype: "1/1", Impact: domain.ImpactNoFunction},
					},
				},
			},
		},
	}

	entry := EntryFromReport(report, time.Second)

	serialized, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.NotContains(t, string(serialized), "rs4244285")
	assert.NotContains(t, string(serialized), "1/1")
	assert.NotContains(t, string(serialized), "*2/*2")
}
