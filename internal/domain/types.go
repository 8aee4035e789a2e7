// Package domain contains core business entities and types for pharmacogenomic
// risk assessment and pharmacokinetic simulation.
//
// Classification vocabulary follows CPIC (Clinical Pharmacogenetics
// Implementation Consortium) guideline terminology for metabolizer phenotypes
// and dosing recommendations.
package domain

// RiskCategory represents the drug safety category derived from a patient's
// metabolizer phenotype and the drug's metabolic mechanism.
type RiskCategory string

const (
	RiskSafe          RiskCategory = "Safe"
	RiskAdjustDosage  RiskCategory = "Adjust Dosage"
	RiskToxic         RiskCategory = "Toxic"
	RiskIndeterminate RiskCategory = "Indeterminate"
)

// IsValid validates that the risk category belongs to the closed set.
// Only valid categories may be surfaced in clinical reports.
func (r RiskCategory) IsValid() bool {
	switch r {
	case RiskSafe, RiskAdjustDosage, RiskToxic, RiskIndeterminate:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk category.
func (r RiskCategory) String() string {
	return string(r)
}

// Normalized returns the externally reported category name. Consumers see
// "Unknown" instead of the internal "Indeterminate".
func (r RiskCategory) Normalized() string {
	if r == RiskIndeterminate {
		return "Unknown"
	}
	return string(r)
}

// Severity derives the four-level severity from the risk category.
func (r RiskCategory) Severity() Severity {
	switch r {
	case RiskSafe:
		return SeverityNone
	case RiskAdjustDosage:
		return SeverityModerate
	case RiskToxic:
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// LogFields returns structured logging fields for audit trails.
func (r RiskCategory) LogFields() map[string]any {
	return map[string]any{
		"risk_category": r.Normalized(),
		"severity":      string(r.Severity()),
		"is_valid":      r.IsValid(),
	}
}

// Severity represents the clinical severity derived from a risk category.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// IsValid validates the severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityModerate, SeverityCritical:
		return true
	default:
		return false
	}
}

// Phenotype is the expanded, human-readable phenotype label called for a gene,
// e.g. "Poor Metabolizer" or "Decreased Function".
type Phenotype string

const (
	PhenotypePoorMetabolizer         Phenotype = "Poor Metabolizer"
	PhenotypeIntermediateMetabolizer Phenotype = "Intermediate Metabolizer"
	PhenotypeNormalMetabolizer       Phenotype = "Normal Metabolizer"
	PhenotypeRapidMetabolizer        Phenotype = "Rapid Metabolizer"
	PhenotypeUltrarapidMetabolizer   Phenotype = "Ultrarapid Metabolizer"
	PhenotypeNormalFunction          Phenotype = "Normal Function"
	PhenotypeDecreasedFunction       Phenotype = "Decreased Function"
	PhenotypePoorFunction            Phenotype = "Poor Function"
	PhenotypeIncreasedFunction       Phenotype = "Increased Function"
	PhenotypeIndeterminate           Phenotype = "Indeterminate"
)

// String returns the string representation of the phenotype label.
func (p Phenotype) String() string {
	return string(p)
}

// Code collapses the expanded phenotype vocabulary into the canonical short
// codes consumed downstream. "Normal Function" keeps its own literal code
// because consumers key on whether activity-score semantics produced the call;
// it must never be merged into NM.
func (p Phenotype) Code() PhenotypeCode {
	switch p {
	case PhenotypePoorMetabolizer, PhenotypePoorFunction:
		return CodePM
	case PhenotypeIntermediateMetabolizer, PhenotypeDecreasedFunction:
		return CodeIM
	case PhenotypeNormalMetabolizer:
		return CodeNM
	case PhenotypeRapidMetabolizer, PhenotypeIncreasedFunction:
		return CodeRM
	case PhenotypeUltrarapidMetabolizer:
		return CodeURM
	case PhenotypeNormalFunction:
		return CodeNormal
	default:
		return CodeIndeterminate
	}
}

// PhenotypeCode is the canonical short code for a metabolizer phenotype.
type PhenotypeCode string

const (
	CodePM            PhenotypeCode = "PM"
	CodeIM            PhenotypeCode = "IM"
	CodeNM            PhenotypeCode = "NM"
	CodeRM            PhenotypeCode = "RM"
	CodeURM           PhenotypeCode = "URM"
	CodeNormal        PhenotypeCode = "Normal"
	CodeIndeterminate PhenotypeCode = "Indeterminate"
)

// IsValid validates the canonical phenotype code.
func (c PhenotypeCode) IsValid() bool {
	switch c {
	case CodePM, CodeIM, CodeNM, CodeRM, CodeURM, CodeNormal, CodeIndeterminate:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phenotype code.
func (c PhenotypeCode) String() string {
	return string(c)
}

// Zygosity represents the per-site genotype call for a variant.
type Zygosity string

const (
	HomozygousReference Zygosity = "HOMOZYGOUS_REFERENCE"
	Heterozygous        Zygosity = "HETEROZYGOUS"
	HomozygousVariant   Zygosity = "HOMOZYGOUS_VARIANT"
	ZygosityUnknown     Zygosity = "UNKNOWN"
)

// ZygosityFromGenotype maps a genotype call to its zygosity. The mapping is
// fixed: only the three diploid biallelic calls are recognized; everything
// else is unresolved and excluded from annotation.
func ZygosityFromGenotype(genotype string) Zygosity {
	switch genotype {
	case "0/0":
		return HomozygousReference
	case "0/1":
		return Heterozygous
	case "1/1":
		return HomozygousVariant
	default:
		return ZygosityUnknown
	}
}

// VariantCopies returns how many copies of the alternate allele the zygosity
// implies.
func (z Zygosity) VariantCopies() int {
	switch z {
	case Heterozygous:
		return 1
	case HomozygousVariant:
		return 2
	default:
		return 0
	}
}

// FunctionalImpact is the resolved functional consequence label attached to a
// detected variant.
type FunctionalImpact string

const (
	ImpactNormalFunction    FunctionalImpact = "Normal Function"
	ImpactReducedFunction   FunctionalImpact = "Reduced Function"
	ImpactLossOfFunction    FunctionalImpact = "Loss of Function"
	ImpactNoFunction        FunctionalImpact = "No Function"
	ImpactIncreasedFunction FunctionalImpact = "Increased Function"
	ImpactUnknown           FunctionalImpact = "Unknown"
)

// IsResolved reports whether the impact is informative. Variants with an
// unresolved impact are excluded from detected-variant lists and lower the
// annotation-complete flag.
func (f FunctionalImpact) IsResolved() bool {
	return f != ImpactUnknown && f != ""
}

// AlleleFunction is the curated functional class of a star allele.
type AlleleFunction string

const (
	FunctionNormal    AlleleFunction = "NORMAL"
	FunctionDecreased AlleleFunction = "DECREASED"
	FunctionNone      AlleleFunction = "NONE"
	FunctionIncreased AlleleFunction = "INCREASED"
)

// IsValid validates the allele function class.
func (a AlleleFunction) IsValid() bool {
	switch a {
	case FunctionNormal, FunctionDecreased, FunctionNone, FunctionIncreased:
		return true
	default:
		return false
	}
}

// MechanismDirection distinguishes drugs cleared by the gene product from
// prodrugs activated by it. The risk polarity inverts between the two.
type MechanismDirection string

const (
	DirectionClearance  MechanismDirection = "clearance"
	DirectionActivation MechanismDirection = "activation"
)

// IsValid validates the mechanism direction.
func (d MechanismDirection) IsValid() bool {
	return d == DirectionClearance || d == DirectionActivation
}

// IsProdrug reports whether the direction describes a prodrug pathway.
func (d MechanismDirection) IsProdrug() bool {
	return d == DirectionActivation
}
