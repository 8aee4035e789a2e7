package guidelines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmgx-twin-server/internal/domain"
)

func TestDefaultDataset_Shape(t *testing.T) {
	ds := DefaultDataset()

	assert.Equal(t, DefaultDatasetVersion, ds.Version)
	assert.Len(t, ds.Drugs, 10, "ten drugs ship in the initial rule table")
	assert.NotEmpty(t, ds.Genes)

	// Every drug's driving gene must have a curated table, and every drug
	// must have PK parameters.
	for drug, rule := range ds.Drugs {
		assert.Equal(t, drug, rule.Drug)
		_, ok := ds.Genes[rule.Gene]
		assert.True(t, ok, "drug %s references unknown gene %s", drug, rule.Gene)
		assert.True(t, rule.Direction.IsValid())

		params, found := ds.PKFor(drug)
		assert.True(t, found, "drug %s has no PK parameters", drug)
		assert.Greater(t, params.DoseMg, 0.0)
		assert.Greater(t, params.AbsorptionRateKa, 0.0)
		assert.Greater(t, params.EliminationRateKe, 0.0)
		assert.Greater(t, params.HalfLifeHours, 0.0)
		assert.Equal(t, rule.Direction.IsProdrug(), params.Prodrug,
			"drug %s prodrug flag must match its mechanism direction", drug)
	}
}

func TestDefaultDataset_NoCrossGeneRSIDs(t *testing.T) {
	ds := DefaultDataset()

	seen := make(map[string]string)
	for gene, table := range ds.Genes {
		for rsid := range table.Alleles {
			if prev, dup := seen[rsid]; dup {
				t.Fatalf("rsID %s curated for both %s and %s", rsid, prev, gene)
			}
			seen[rsid] = gene
		}
	}
}

func TestDefaultDataset_RiskPolarity(t *testing.T) {
	ds := DefaultDataset()

	// Clearance drugs: poor metabolizers accumulate drug.
	assert.Equal(t, domain.RiskToxic, ds.Risk.RiskFor(domain.DirectionClearance, domain.CodePM))
	assert.Equal(t, domain.RiskAdjustDosage, ds.Risk.RiskFor(domain.DirectionClearance, domain.CodeURM))

	// Activation drugs: polarity inverts.
	assert.Equal(t, domain.RiskAdjustDosage, ds.Risk.RiskFor(domain.DirectionActivation, domain.CodePM))
	assert.Equal(t, domain.RiskToxic, ds.Risk.RiskFor(domain.DirectionActivation, domain.CodeURM))

	// Reference phenotypes are safe on both pathways.
	for _, dir := range []domain.MechanismDirection{domain.DirectionClearance, domain.DirectionActivation} {
		assert.Equal(t, domain.RiskSafe, ds.Risk.RiskFor(dir, domain.CodeNM))
		assert.Equal(t, domain.RiskSafe, ds.Risk.RiskFor(dir, domain.CodeNormal))
	}

	assert.Equal(t, domain.RiskIndeterminate, ds.Risk.RiskFor(domain.DirectionClearance, domain.CodeIndeterminate))
}

func TestDefaultDataset_CYP2C19NoFunctionSubset(t *testing.T) {
	ds := DefaultDataset()
	table := ds.Genes["CYP2C19"]

	require.True(t, table.Contains("rs4244285"))
	assert.True(t, table.NoFunction("rs4244285"), "*2 is a no-function allele")
	assert.True(t, table.NoFunction("rs4986893"), "*3 is a no-function allele")
	assert.False(t, table.NoFunction("rs12248560"), "*17 is increased function")
	assert.False(t, table.NoFunction("rs99999999"), "unknown rsIDs are never no-function")
}

func TestDataset_PKFor_UnknownDrugFallback(t *testing.T) {
	ds := DefaultDataset()

	params, found := ds.PKFor("IBUPROFEN")
	assert.False(t, found)
	assert.Equal(t, "IBUPROFEN", params.Drug)
	assert.Equal(t, ds.DefaultPK.DoseMg, params.DoseMg)
	assert.False(t, params.Prodrug)
}

func TestDataset_ModifierFor(t *testing.T) {
	ds := DefaultDataset()

	assert.Equal(t, 0.25, ds.ModifierFor(domain.CodePM))
	assert.Equal(t, 2.0, ds.ModifierFor(domain.CodeURM))
	assert.Equal(t, 1.0, ds.ModifierFor(domain.CodeIndeterminate))
}

func TestDataset_DeterministicSymbolOrder(t *testing.T) {
	ds := DefaultDataset()

	first := ds.GeneSymbols()
	second := ds.GeneSymbols()
	assert.Equal(t, first, second)
	assert.Equal(t, ds.DrugNames(), ds.DrugNames())
}
