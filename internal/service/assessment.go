package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
)

// defaultExplainTimeout bounds the per-drug explanation side call.
const defaultExplainTimeout = 10 * time.Second

// Explainer generates an optional free-text explanation for one assessment.
// It is a side channel: failure or timeout degrades to an empty explanation
// and never fails the drug report.
type Explainer interface {
	Explain(ctx context.Context, assessment *domain.DrugRiskAssessment) (string, error)
}

// AssessmentService orchestrates the full pipeline: parse, call diplotypes,
// classify phenotypes, then evaluate and simulate each requested drug
// concurrently.
type AssessmentService struct {
	parser     *VariantParserService
	caller     *DiplotypeCallerService
	classifier *PhenotypeClassifierService
	evaluator  *RiskEvaluatorService
	simulator  *PKSimulatorService
	dataset    *guidelines.Dataset

	explainer      Explainer
	explainTimeout time.Duration

	logger *logrus.Logger
}

// NewAssessmentService creates a new assessment service. explainer may be nil
// when the explanation side channel is disabled.
func NewAssessmentService(
	parser *VariantParserService,
	caller *DiplotypeCallerService,
	classifier *PhenotypeClassifierService,
	evaluator *RiskEvaluatorService,
	simulator *PKSimulatorService,
	dataset *guidelines.Dataset,
	explainer Explainer,
	logger *logrus.Logger,
) *AssessmentService {
	return &AssessmentService{
		parser:         parser,
		caller:         caller,
		classifier:     classifier,
		evaluator:      evaluator,
		simulator:      simulator,
		dataset:        dataset,
		explainer:      explainer,
		explainTimeout: defaultExplainTimeout,
		logger:         logger,
	}
}

// BuildProfile parses a variant document and calls every curated gene,
// producing the per-request patient profile. Gene iteration follows the
// sorted symbol order so profiles are deterministic.
func (s *AssessmentService) BuildProfile(document string) (*domain.PatientProfile, int, error) {
	variants, err := s.parser.Parse(document)
	if err != nil {
		return nil, 0, err
	}

	profile := &domain.PatientProfile{
		Genes: make(map[string]domain.GeneActivityRecord, len(s.dataset.Genes)),
	}

	covered := 0
	for _, gene := range s.dataset.GeneSymbols() {
		table := s.dataset.Genes[gene]
		record := s.caller.Call(table, variants)
		record.Phenotype = s.classifier.Classify(table, record)
		record.PhenotypeCode = record.Phenotype.Code()
		profile.Genes[gene] = record
		if record.Covered {
			covered++
		}
	}

	profile.GCIScore = ComputeGCI(covered, len(s.dataset.Genes))

	return profile, len(variants), nil
}

// Assess runs the complete pipeline for one uploaded document and drug list.
// Per-drug work fans out to independent goroutines and fans back into a
// result slice ordered by the requested drug order regardless of completion
// order. A fault in one drug's evaluation degrades that report to an
// indeterminate placeholder without touching its siblings.
func (s *AssessmentService) Assess(ctx context.Context, document string, drugs []string) (*domain.AssessmentReport, error) {
	profile, variantCount, err := s.BuildProfile(document)
	if err != nil {
		return nil, err
	}

	reports := make([]*domain.DrugReport, len(drugs))

	var wg sync.WaitGroup
	for i, drug := range drugs {
		wg.Add(1)
		go func(i int, drug string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.WithFields(logrus.Fields{
						"drug":  drug,
						"panic": r,
					}).Error("Drug evaluation panicked, degrading to indeterminate report")
					reports[i] = s.failedReport(drug, profile)
				}
			}()
			reports[i] = s.assessDrug(ctx, drug, profile)
		}(i, drug)
	}
	wg.Wait()

	report := &domain.AssessmentReport{
		RequestID:      uuid.NewString(),
		DatasetVersion: s.dataset.Version,
		GCIScore:       profile.GCIScore,
		VariantCount:   variantCount,
		Drugs:          reports,
		GeneratedAt:    time.Now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":    report.RequestID,
		"drug_count":    len(drugs),
		"variant_count": variantCount,
		"gci_score":     profile.GCIScore,
	}).Info("Assessment completed")

	return report, nil
}

func (s *AssessmentService) assessDrug(ctx context.Context, drug string, profile *domain.PatientProfile) *domain.DrugReport {
	assessment := s.evaluator.Evaluate(drug, profile)
	simulation := s.simulator.Simulate(drug, assessment.PhenotypeCode, 0)

	report := &domain.DrugReport{
		Assessment: assessment,
		Simulation: simulation,
	}

	if s.explainer != nil {
		explainCtx, cancel := context.WithTimeout(ctx, s.explainTimeout)
		defer cancel()

		explanation, err := s.explainer.Explain(explainCtx, assessment)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"drug":  drug,
				"error": err.Error(),
			}).Warn("Explanation side call failed, continuing without narrative")
		} else {
			report.Explanation = explanation
		}
	}

	return report
}

// failedReport is the degraded per-drug result used when evaluation faults.
func (s *AssessmentService) failedReport(drug string, profile *domain.PatientProfile) *domain.DrugReport {
	confidence := BandConfidence(profile.GCIScore / 100)
	return &domain.DrugReport{
		Assessment: &domain.DrugRiskAssessment{
			Drug:             drug,
			Phenotype:        domain.PhenotypeIndeterminate,
			PhenotypeCode:    domain.CodeIndeterminate,
			Mechanism:        "unknown",
			Risk:             domain.RiskIndeterminate,
			RiskLabel:        domain.RiskIndeterminate.Normalized(),
			Severity:         domain.RiskIndeterminate.Severity(),
			Recommendation:   "Evaluation failed for this drug; retry or consult a clinical pharmacist.",
			EvidenceStrength: "None",
			Confidence:       confidence,
			DetectedVariants: []domain.DetectedVariant{},
			ParseOK:          true,
		},
	}
}
