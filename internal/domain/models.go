package domain

import (
	"strings"
	"time"
)

// Variant represents a single parsed genomic record from the uploaded
// variant-call document. Instances are created once by the parser and never
// mutated downstream.
type Variant struct {
	ID          string `json:"id"`
	Chromosome  string `json:"chromosome"`
	Position    int64  `json:"position"`
	Reference   string `json:"reference"`
	Alternate   string `json:"alternate"`
	SampleField string `json:"sample_field"`
}

// Genotype extracts the genotype call from the sample column. Only the first
// colon-delimited token is the call; trailing fields (depth, quality) are
// ignored.
func (v Variant) Genotype() string {
	if idx := strings.IndexByte(v.SampleField, ':'); idx >= 0 {
		return v.SampleField[:idx]
	}
	return v.SampleField
}

// Zygosity returns the zygosity implied by the variant's genotype call.
func (v Variant) Zygosity() Zygosity {
	return ZygosityFromGenotype(v.Genotype())
}

// MatchedVariant is a variant that matched a gene's curated rsID table,
// annotated with its resolved functional impact.
type MatchedVariant struct {
	RSID       string           `json:"rsid"`
	Genotype   string           `json:"genotype"`
	Zygosity   Zygosity         `json:"zygosity"`
	StarAllele string           `json:"star_allele"`
	Impact     FunctionalImpact `json:"impact"`
}

// GeneActivityRecord holds the diplotype call for one gene.
type GeneActivityRecord struct {
	Gene          string   `json:"gene"`
	Diplotype     string   `json:"diplotype"`
	ActivityScore *float64 `json:"activity_score,omitempty"`

	// Alleles is the assigned allele-function pair backing the diplotype.
	Alleles [2]AlleleFunction `json:"alleles"`

	// Contributing lists the variants from the gene's curated table that
	// informed this call, in document order.
	Contributing []MatchedVariant `json:"contributing_variants"`

	// Covered reports whether at least one curated site for this gene was
	// present in the document, regardless of genotype.
	Covered bool `json:"covered"`

	Phenotype     Phenotype     `json:"phenotype"`
	PhenotypeCode PhenotypeCode `json:"phenotype_code"`
}

// ContributingIDs returns the reference-SNP identifiers of the contributing
// variants.
func (g GeneActivityRecord) ContributingIDs() []string {
	ids := make([]string, 0, len(g.Contributing))
	for _, mv := range g.Contributing {
		ids = append(ids, mv.RSID)
	}
	return ids
}

// PatientProfile aggregates per-gene diplotype calls for one analysis request.
// It is constructed once per request and read-only afterwards; nothing in it
// is persisted.
type PatientProfile struct {
	Genes    map[string]GeneActivityRecord `json:"genes"`
	GCIScore float64                       `json:"gci_score"`
}

// DetectedVariant is the externally reported form of a matched variant.
// Every surfaced variant carries a resolved impact label.
type DetectedVariant struct {
	RSID     string           `json:"rsid"`
	Genotype string           `json:"genotype"`
	Impact   FunctionalImpact `json:"impact"`
}

// DrugRiskAssessment is the per-drug risk result. It is a derived value
// object: recomputed on every request and never mutated after construction.
type DrugRiskAssessment struct {
	Drug          string        `json:"drug"`
	Gene          string        `json:"gene"`
	Diplotype     string        `json:"diplotype"`
	Phenotype     Phenotype     `json:"phenotype"`
	PhenotypeCode PhenotypeCode `json:"phenotype_code"`
	ActivityScore *float64      `json:"activity_score,omitempty"`
	Mechanism     string        `json:"mechanism"`

	Risk             RiskCategory `json:"risk"`
	RiskLabel        string       `json:"risk_label"`
	Severity         Severity     `json:"severity"`
	Recommendation   string       `json:"recommendation"`
	EvidenceStrength string       `json:"evidence_strength"`

	// Confidence is the banded GCI-derived fraction in [0, 0.95].
	Confidence float64 `json:"confidence"`

	DetectedVariants []DetectedVariant `json:"detected_variants"`

	ParseOK            bool `json:"parse_ok"`
	AnnotationComplete bool `json:"annotation_complete"`
}

// PKSeriesPoint is one sample of a simulated concentration-time curve.
// Metabolite is present only for prodrugs.
type PKSeriesPoint struct {
	TimeHours         float64  `json:"time_hours"`
	Concentration     float64  `json:"concentration"`
	Metabolite        *float64 `json:"metabolite_concentration,omitempty"`
	ToxicityThreshold float64  `json:"toxicity_threshold"`
	EfficacyFloor     float64  `json:"efficacy_floor"`
}

// PKSimulation is the finite, deterministic concentration-time series produced
// for one (drug, phenotype) pair. Re-invoking with identical inputs reproduces
// identical output.
type PKSimulation struct {
	Drug              string          `json:"drug"`
	Phenotype         PhenotypeCode   `json:"phenotype"`
	Prodrug           bool            `json:"prodrug"`
	WindowHours       float64         `json:"window_hours"`
	ToxicityThreshold float64         `json:"toxicity_threshold"`
	EfficacyFloor     float64         `json:"efficacy_floor"`
	Points            []PKSeriesPoint `json:"points"`

	// SingularSamples counts samples where the closed-form model was
	// numerically singular and the zero-concentration fallback was used.
	SingularSamples int `json:"singular_samples,omitempty"`
}

// DrugReport pairs a risk assessment with its PK simulation and the optional
// free-text explanation from the side channel.
type DrugReport struct {
	Assessment  *DrugRiskAssessment `json:"assessment"`
	Simulation  *PKSimulation       `json:"simulation"`
	Explanation string              `json:"explanation,omitempty"`
}

// AssessmentReport is the complete per-request result.
type AssessmentReport struct {
	RequestID      string        `json:"request_id"`
	DatasetVersion string        `json:"dataset_version"`
	GCIScore       float64       `json:"gci_score"`
	VariantCount   int           `json:"variant_count"`
	Drugs          []*DrugReport `json:"drugs"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
