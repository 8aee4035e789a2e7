// Package guidelines holds the curated pharmacogenomic reference data the
// core pipeline consumes: per-gene variant tables, drug rules, risk lookups
// and PK parameters. The dataset is versioned, immutable once loaded, and
// swappable so guideline updates ship as data rather than code changes.
package guidelines

import (
	"context"
	"sort"

	"github.com/pharmgx-twin-server/internal/domain"
)

// VariantAllele is one curated star allele keyed by its reference-SNP id.
type VariantAllele struct {
	RSID          string                `json:"rsid"`
	StarAllele    string                `json:"star_allele"`
	Function      domain.AlleleFunction `json:"function"`
	ActivityValue float64               `json:"activity_value"`
}

// GeneTable is the curated variant table for one gene. Only the rsIDs listed
// here may influence the gene's diplotype call.
type GeneTable struct {
	Gene string `json:"gene"`

	// UsesActivityScore selects activity-score semantics; genes without it
	// are classified categorically from the allele-function pair.
	UsesActivityScore bool `json:"uses_activity_score"`

	// FunctionVocabulary selects "Normal/Decreased/Poor Function" labels
	// instead of metabolizer labels for categorical genes (transporters,
	// warfarin sensitivity genes).
	FunctionVocabulary bool `json:"function_vocabulary"`

	ReferenceAllele    string  `json:"reference_allele"`
	ReferenceActivity  float64 `json:"reference_activity"`
	MaxActivityScore   float64 `json:"max_activity_score"`

	Alleles map[string]VariantAllele `json:"alleles"`
}

// Contains reports whether the rsID belongs to this gene's curated table.
func (g GeneTable) Contains(rsid string) bool {
	_, ok := g.Alleles[rsid]
	return ok
}

// NoFunction reports whether the rsID belongs to the gene's curated
// no-function subset.
func (g GeneTable) NoFunction(rsid string) bool {
	allele, ok := g.Alleles[rsid]
	return ok && allele.Function == domain.FunctionNone
}

// ReferenceDiplotype is the diplotype label used when no curated variant
// matched.
func (g GeneTable) ReferenceDiplotype() string {
	return g.ReferenceAllele + "/" + g.ReferenceAllele
}

// DrugRule maps a drug to its single driving gene and mechanism.
type DrugRule struct {
	Drug             string                                 `json:"drug"`
	Gene             string                                 `json:"gene"`
	Direction        domain.MechanismDirection              `json:"direction"`
	EvidenceStrength string                                 `json:"evidence_strength"`
	Recommendations  map[domain.PhenotypeCode]string        `json:"recommendations"`
}

// Mechanism returns the pathway tag, e.g. "CYP2C19_activation".
func (d DrugRule) Mechanism() string {
	return d.Gene + "_" + string(d.Direction)
}

// PKParameters is the per-drug parameter set for the one-compartment oral
// absorption model.
type PKParameters struct {
	Drug                  string  `json:"drug"`
	DoseMg                float64 `json:"dose_mg"`
	Bioavailability       float64 `json:"bioavailability"`
	VolumeOfDistributionL float64 `json:"volume_of_distribution_l"`
	AbsorptionRateKa      float64 `json:"absorption_rate_ka"`
	EliminationRateKe     float64 `json:"elimination_rate_ke"`
	HalfLifeHours         float64 `json:"half_life_hours"`
	ToxicityThreshold     float64 `json:"toxicity_threshold"`
	EfficacyFloor         float64 `json:"efficacy_floor"`
	Prodrug               bool    `json:"prodrug"`
	MetaboliteWeight      float64 `json:"metabolite_weight"`
}

// RiskTable maps (mechanism direction, phenotype code) to a risk category.
type RiskTable map[domain.MechanismDirection]map[domain.PhenotypeCode]domain.RiskCategory

// RiskFor resolves the risk category for a phenotype under a mechanism
// direction. Unmapped combinations resolve to Indeterminate.
func (t RiskTable) RiskFor(direction domain.MechanismDirection, code domain.PhenotypeCode) domain.RiskCategory {
	if byCode, ok := t[direction]; ok {
		if risk, ok := byCode[code]; ok {
			return risk
		}
	}
	return domain.RiskIndeterminate
}

// Dataset is one immutable, versioned snapshot of all curated tables.
type Dataset struct {
	Version string `json:"version"`

	Genes map[string]GeneTable    `json:"genes"`
	Drugs map[string]DrugRule     `json:"drugs"`
	PK    map[string]PKParameters `json:"pk"`

	// DefaultPK is the fallback parameter set for drugs outside the table.
	DefaultPK PKParameters `json:"default_pk"`

	Risk RiskTable `json:"risk"`

	// PhenotypeModifiers scale the base elimination (or activation) rate per
	// phenotype code.
	PhenotypeModifiers map[domain.PhenotypeCode]float64 `json:"phenotype_modifiers"`
}

// GeneSymbols returns the curated gene symbols in sorted order so iteration
// is deterministic.
func (d *Dataset) GeneSymbols() []string {
	symbols := make([]string, 0, len(d.Genes))
	for gene := range d.Genes {
		symbols = append(symbols, gene)
	}
	sort.Strings(symbols)
	return symbols
}

// DrugNames returns the supported drug names in sorted order.
func (d *Dataset) DrugNames() []string {
	names := make([]string, 0, len(d.Drugs))
	for drug := range d.Drugs {
		names = append(names, drug)
	}
	sort.Strings(names)
	return names
}

// DrugRuleFor looks up the rule for a drug.
func (d *Dataset) DrugRuleFor(drug string) (DrugRule, bool) {
	rule, ok := d.Drugs[drug]
	return rule, ok
}

// PKFor returns the PK parameters for a drug, falling back to the generic
// default set for drugs outside the table.
func (d *Dataset) PKFor(drug string) (PKParameters, bool) {
	if params, ok := d.PK[drug]; ok {
		return params, true
	}
	fallback := d.DefaultPK
	fallback.Drug = drug
	return fallback, false
}

// ModifierFor returns the phenotype rate modifier, defaulting to 1.0 for
// codes without a curated entry.
func (d *Dataset) ModifierFor(code domain.PhenotypeCode) float64 {
	if m, ok := d.PhenotypeModifiers[code]; ok {
		return m
	}
	return 1.0
}

// Store is the persistence interface for guideline datasets. Implementations
// exist for SQLite (embedded deployments) and PostgreSQL (shared guideline
// databases).
type Store interface {
	// Load reads the complete dataset snapshot.
	Load(ctx context.Context) (*Dataset, error)

	// Save writes a complete dataset snapshot, replacing the stored one.
	Save(ctx context.Context, ds *Dataset) error

	// Version returns the stored dataset version without loading the tables.
	Version(ctx context.Context) (string, error)

	// Close releases the underlying resources.
	Close() error
}
