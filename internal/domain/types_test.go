package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskCategory_Normalized(t *testing.T) {
	tests := []struct {
		name string
		risk RiskCategory
		want string
	}{
		{"Safe stays Safe", RiskSafe, "Safe"},
		{"Adjust Dosage unchanged", RiskAdjustDosage, "Adjust Dosage"},
		{"Toxic unchanged", RiskToxic, "Toxic"},
		{"Indeterminate renamed to Unknown", RiskIndeterminate, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.risk.Normalized())
		})
	}
}

func TestRiskCategory_Severity(t *testing.T) {
	tests := []struct {
		risk RiskCategory
		want Severity
	}{
		{RiskSafe, SeverityNone},
		{RiskAdjustDosage, SeverityModerate},
		{RiskToxic, SeverityCritical},
		{RiskIndeterminate, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.risk), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.risk.Severity())
			assert.True(t, tt.want.IsValid())
		})
	}
}

func TestPhenotype_Code(t *testing.T) {
	tests := []struct {
		phenotype Phenotype
		want      PhenotypeCode
	}{
		{PhenotypePoorMetabolizer, CodePM},
		{PhenotypePoorFunction, CodePM},
		{PhenotypeIntermediateMetabolizer, CodeIM},
		{PhenotypeDecreasedFunction, CodeIM},
		{PhenotypeNormalMetabolizer, CodeNM},
		{PhenotypeRapidMetabolizer, CodeRM},
		{PhenotypeIncreasedFunction, CodeRM},
		{PhenotypeUltrarapidMetabolizer, CodeURM},
		{PhenotypeIndeterminate, CodeIndeterminate},
		{Phenotype("something else"), CodeIndeterminate},
	}

	for _, tt := range tests {
		t.Run(string(tt.phenotype), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.phenotype.Code())
		})
	}
}

// The "Normal Function" label has its own literal code. Collapsing it into NM
// would erase the activity-score vs metabolizer semantics distinction that
// downstream consumers key on.
func TestPhenotype_NormalFunctionSpecialCase(t *testing.T) {
	assert.Equal(t, CodeNormal, PhenotypeNormalFunction.Code())
	assert.NotEqual(t, CodeNM, PhenotypeNormalFunction.Code())
}

func TestZygosityFromGenotype(t *testing.T) {
	tests := []struct {
		genotype string
		want     Zygosity
		copies   int
	}{
		{"0/0", HomozygousReference, 0},
		{"0/1", Heterozygous, 1},
		{"1/1", HomozygousVariant, 2},
		{"1/2", ZygosityUnknown, 0},
		{"./.", ZygosityUnknown, 0},
		{"", ZygosityUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.genotype, func(t *testing.T) {
			z := ZygosityFromGenotype(tt.genotype)
			assert.Equal(t, tt.want, z)
			assert.Equal(t, tt.copies, z.VariantCopies())
		})
	}
}

func TestVariant_Genotype(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   string
	}{
		{"genotype with depth", "0/1:30", "0/1"},
		{"genotype with several extras", "1/1:12:0.98", "1/1"},
		{"bare genotype", "0/0", "0/0"},
		{"empty sample", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Variant{SampleField: tt.sample}
			assert.Equal(t, tt.want, v.Genotype())
		})
	}
}

func TestFunctionalImpact_IsResolved(t *testing.T) {
	assert.True(t, ImpactNoFunction.IsResolved())
	assert.True(t, ImpactReducedFunction.IsResolved())
	assert.False(t, ImpactUnknown.IsResolved())
	assert.False(t, FunctionalImpact("").IsResolved())
}

func TestMechanismDirection(t *testing.T) {
	assert.True(t, DirectionActivation.IsProdrug())
	assert.False(t, DirectionClearance.IsProdrug())
	assert.True(t, DirectionClearance.IsValid())
	assert.False(t, MechanismDirection("transport").IsValid())
}
