package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
)

// confidenceCap is the maximum confidence the engine ever reports; full
// certainty is never claimed even at complete gene coverage.
const confidenceCap = 0.95

// RiskEvaluatorService maps (drug, patient profile) pairs to risk assessments
// using the curated drug-rule and risk tables.
type RiskEvaluatorService struct {
	dataset *guidelines.Dataset
	logger  *logrus.Logger
}

// NewRiskEvaluatorService creates a new risk evaluator service.
func NewRiskEvaluatorService(dataset *guidelines.Dataset, logger *logrus.Logger) *RiskEvaluatorService {
	return &RiskEvaluatorService{dataset: dataset, logger: logger}
}

// Evaluate produces the risk assessment for one drug against a called
// profile. It is a pure function of its inputs. Drugs outside the rule table
// yield a best-effort Indeterminate assessment rather than an error, so one
// unrecognized drug never fails a whole request.
func (s *RiskEvaluatorService) Evaluate(drug string, profile *domain.PatientProfile) *domain.DrugRiskAssessment {
	confidence := BandConfidence(profile.GCIScore / 100)

	rule, known := s.dataset.DrugRuleFor(drug)
	if !known {
		s.logger.WithField("drug", drug).Warn("Drug not in rule table, returning indeterminate assessment")
		return &domain.DrugRiskAssessment{
			Drug:               drug,
			Phenotype:          domain.PhenotypeIndeterminate,
			PhenotypeCode:      domain.CodeIndeterminate,
			Mechanism:          "unknown",
			Risk:               domain.RiskIndeterminate,
			RiskLabel:          domain.RiskIndeterminate.Normalized(),
			Severity:           domain.RiskIndeterminate.Severity(),
			Recommendation:     "No curated guideline for this drug; consult a clinical pharmacist.",
			EvidenceStrength:   "None",
			Confidence:         confidence,
			DetectedVariants:   []domain.DetectedVariant{},
			ParseOK:            true,
			AnnotationComplete: true,
		}
	}

	record := profile.Genes[rule.Gene]
	risk := s.dataset.Risk.RiskFor(rule.Direction, record.PhenotypeCode)

	assessment := &domain.DrugRiskAssessment{
		Drug:             drug,
		Gene:             rule.Gene,
		Diplotype:        record.Diplotype,
		Phenotype:        record.Phenotype,
		PhenotypeCode:    record.PhenotypeCode,
		ActivityScore:    record.ActivityScore,
		Mechanism:        rule.Mechanism(),
		Risk:             risk,
		RiskLabel:        risk.Normalized(),
		Severity:         risk.Severity(),
		Recommendation:   recommendationFor(rule, record.PhenotypeCode, risk),
		EvidenceStrength: rule.EvidenceStrength,
		Confidence:       confidence,
		ParseOK:          true,
	}

	assessment.DetectedVariants, assessment.AnnotationComplete = surfaceVariants(record.Contributing)

	return assessment
}

// surfaceVariants filters the contributing variants down to those with a
// resolved impact. Any unresolved variant is dropped from the surfaced list
// and clears the annotation-complete flag instead of being reported with an
// unknown label.
func surfaceVariants(contributing []domain.MatchedVariant) ([]domain.DetectedVariant, bool) {
	detected := make([]domain.DetectedVariant, 0, len(contributing))
	complete := true

	for _, mv := range contributing {
		if !mv.Impact.IsResolved() {
			complete = false
			continue
		}
		detected = append(detected, domain.DetectedVariant{
			RSID:     mv.RSID,
			Genotype: mv.Genotype,
			Impact:   mv.Impact,
		})
	}

	return detected, complete
}

func recommendationFor(rule guidelines.DrugRule, code domain.PhenotypeCode, risk domain.RiskCategory) string {
	if rec, ok := rule.Recommendations[code]; ok {
		return rec
	}
	switch risk {
	case domain.RiskSafe:
		return "Standard dosing per label."
	case domain.RiskAdjustDosage:
		return "Consider dose adjustment or an alternative agent."
	case domain.RiskToxic:
		return "Avoid; select an alternative agent."
	default:
		return "Insufficient genomic evidence; use clinical judgment."
	}
}

// BandConfidence applies the coarse confidence banding to a raw GCI fraction:
// values at or above 1.0 clamp to 0.95, values strictly between 0.85 and 0.95
// snap to exactly 0.90, negative values floor at zero, and everything else
// passes through unchanged.
func BandConfidence(c float64) float64 {
	switch {
	case c >= 1.0:
		return confidenceCap
	case c > 0.85 && c < confidenceCap:
		return 0.90
	case c < 0:
		return 0
	default:
		return c
	}
}

// ComputeGCI derives the 0-100 genomic confidence index from how many of the
// analyzable genes had at least one curated site present in the document.
func ComputeGCI(covered, analyzable int) float64 {
	if analyzable == 0 {
		return 0
	}
	return 100 * float64(covered) / float64(analyzable)
}
