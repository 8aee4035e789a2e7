package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
)

// panelRSIDs holds one curated site per gene so a synthetic document can
// cover the full panel.
var panelRSIDs = []string{
	"rs3892097", // CYP2D6
	"rs4244285", // CYP2C19
	"rs1799853", // CYP2C9
	"rs4149056", // SLCO1B1
	"rs1800462", // TPMT
	"rs3918290", // DPYD
	"rs9923231", // VKORC1
}

func fullPanelDocument(genotype string) string {
	rows := make([]string, 0, len(panelRSIDs))
	for _, rsid := range panelRSIDs {
		rows = append(rows, vcfRow(rsid, genotype))
	}
	return vcfDocument(rows...)
}

func newTestAssessmentService(t *testing.T, explainer Explainer) *AssessmentService {
	t.Helper()

	logger := testLogger()
	dataset := guidelines.DefaultDataset()

	simulator, err := NewPKSimulatorService(dataset, logger)
	require.NoError(t, err)

	return NewAssessmentService(
		NewVariantParserService(logger),
		NewDiplotypeCallerService(logger),
		NewPhenotypeClassifierService(logger),
		NewRiskEvaluatorService(dataset, logger),
		simulator,
		dataset,
		explainer,
		logger,
	)
}

type fakeExplainer struct {
	err error
}

func (f *fakeExplainer) Explain(_ context.Context, a *domain.DrugRiskAssessment) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%s: %s", a.Drug, a.RiskLabel), nil
}

// panickyExplainer faults inside one drug's evaluation goroutine.
type panickyExplainer struct {
	drug string
}

func (p *panickyExplainer) Explain(_ context.Context, a *domain.DrugRiskAssessment) (string, error) {
	if a.Drug == p.drug {
		panic("explainer fault for " + a.Drug)
	}
	return fmt.Sprintf("%s: %s", a.Drug, a.RiskLabel), nil
}

func TestAssessmentService_AllReferencePanelIsSafe(t *testing.T) {
	svc := newTestAssessmentService(t, nil)
	ds := guidelines.DefaultDataset()

	report, err := svc.Assess(context.Background(), fullPanelDocument("0/0"), ds.DrugNames())
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.GCIScore, "every curated gene is covered")
	assert.Equal(t, len(panelRSIDs), report.VariantCount)
	assert.Equal(t, guidelines.DefaultDatasetVersion, report.DatasetVersion)
	assert.NotEmpty(t, report.RequestID)

	require.Len(t, report.Drugs, len(ds.Drugs))
	for _, dr := range report.Drugs {
		require.NotNil(t, dr.Assessment)
		require.NotNil(t, dr.Simulation)
		assert.Equal(t, domain.RiskSafe, dr.Assessment.Risk, "drug %s", dr.Assessment.Drug)
		assert.Equal(t, domain.SeverityNone, dr.Assessment.Severity)
		assert.Equal(t, 0.95, dr.Assessment.Confidence)
		assert.True(t, dr.Assessment.ParseOK)
		assert.True(t, dr.Assessment.AnnotationComplete)
	}
}

func TestAssessmentService_ClopidogrelPoorMetabolizerScenario(t *testing.T) {
	svc := newTestAssessmentService(t, nil)

	doc := vcfDocument(vcfRow("rs4244285", "1/1"))
	report, err := svc.Assess(context.Background(), doc, []string{"CLOPIDOGREL"})
	require.NoError(t, err)
	require.Len(t, report.Drugs, 1)

	assessment := report.Drugs[0].Assessment
	assert.Equal(t, "*2/*2", assessment.Diplotype)
	assert.Equal(t, domain.PhenotypePoorMetabolizer, assessment.Phenotype)
	assert.Equal(t, domain.CodePM, assessment.PhenotypeCode)
	assert.NotEqual(t, domain.RiskSafe, assessment.Risk)
	assert.Contains(t, []domain.RiskCategory{domain.RiskAdjustDosage, domain.RiskToxic}, assessment.Risk)

	require.Len(t, assessment.DetectedVariants, 1)
	assert.Equal(t, "rs4244285", assessment.DetectedVariants[0].RSID)
	assert.Equal(t, domain.ImpactNoFunction, assessment.DetectedVariants[0].Impact)
}

func TestAssessmentService_PreservesRequestedDrugOrder(t *testing.T) {
	svc := newTestAssessmentService(t, nil)

	drugs := []string{"WARFARIN", "CODEINE", "IBUPROFEN", "CLOPIDOGREL", "OMEPRAZOLE", "SIMVASTATIN"}
	report, err := svc.Assess(context.Background(), fullPanelDocument("0/1"), drugs)
	require.NoError(t, err)
	require.Len(t, report.Drugs, len(drugs))

	for i, drug := range drugs {
		assert.Equal(t, drug, report.Drugs[i].Assessment.Drug, "results keep the requested order")
		assert.Equal(t, drug, report.Drugs[i].Simulation.Drug)
	}
}

func TestAssessmentService_UnknownDrugDoesNotFailRequest(t *testing.T) {
	svc := newTestAssessmentService(t, nil)

	report, err := svc.Assess(context.Background(), fullPanelDocument("0/0"), []string{"IBUPROFEN", "WARFARIN"})
	require.NoError(t, err)
	require.Len(t, report.Drugs, 2)

	assert.Equal(t, "Unknown", report.Drugs[0].Assessment.RiskLabel)
	assert.Len(t, report.Drugs[0].Simulation.Points, 48, "unknown drugs simulate on default parameters")
	assert.Equal(t, domain.RiskSafe, report.Drugs[1].Assessment.Risk, "siblings are unaffected")
}

func TestAssessmentService_PanicInOneDrugDegradesOnlyThatReport(t *testing.T) {
	svc := newTestAssessmentService(t, &panickyExplainer{drug: "CODEINE"})

	drugs := []string{"WARFARIN", "CODEINE", "OMEPRAZOLE"}
	report, err := svc.Assess(context.Background(), fullPanelDocument("0/0"), drugs)
	require.NoError(t, err)
	require.Len(t, report.Drugs, len(drugs))

	for i, drug := range drugs {
		assert.Equal(t, drug, report.Drugs[i].Assessment.Drug, "order survives the fault")
	}

	degraded := report.Drugs[1].Assessment
	assert.Equal(t, domain.RiskIndeterminate, degraded.Risk)
	assert.Equal(t, "Unknown", degraded.RiskLabel)
	assert.Equal(t, domain.CodeIndeterminate, degraded.PhenotypeCode)
	assert.Contains(t, degraded.Recommendation, "Evaluation failed")
	assert.Nil(t, report.Drugs[1].Simulation)

	assert.Equal(t, domain.RiskSafe, report.Drugs[0].Assessment.Risk, "siblings complete normally")
	assert.Equal(t, domain.RiskSafe, report.Drugs[2].Assessment.Risk)
	assert.Equal(t, "WARFARIN: Safe", report.Drugs[0].Explanation)
	assert.Equal(t, "OMEPRAZOLE: Safe", report.Drugs[2].Explanation)
	assert.NotNil(t, report.Drugs[0].Simulation)
	assert.NotNil(t, report.Drugs[2].Simulation)
}

func TestAssessmentService_FatalParseErrorsPropagate(t *testing.T) {
	svc := newTestAssessmentService(t, nil)

	_, err := svc.Assess(context.Background(), vcfHeaderRow+"\n"+vcfRow("rs4244285", "0/0"), []string{"WARFARIN"})
	assert.ErrorIs(t, err, domain.ErrMissingFormatHeader)

	_, err = svc.Assess(context.Background(), vcfDocument(), []string{"WARFARIN"})
	assert.ErrorIs(t, err, domain.ErrNoVariants)
}

func TestAssessmentService_ExplainerFailureDegradesGracefully(t *testing.T) {
	svc := newTestAssessmentService(t, &fakeExplainer{err: errors.New("upstream unavailable")})

	report, err := svc.Assess(context.Background(), fullPanelDocument("0/0"), []string{"WARFARIN"})
	require.NoError(t, err)
	require.Len(t, report.Drugs, 1)

	assert.Empty(t, report.Drugs[0].Explanation)
	assert.Equal(t, domain.RiskSafe, report.Drugs[0].Assessment.Risk, "side-channel failure never degrades the assessment")
}

func TestAssessmentService_ExplainerAttachesNarrative(t *testing.T) {
	svc := newTestAssessmentService(t, &fakeExplainer{})

	report, err := svc.Assess(context.Background(), fullPanelDocument("0/0"), []string{"WARFARIN"})
	require.NoError(t, err)
	require.Len(t, report.Drugs, 1)
	assert.Equal(t, "WARFARIN: Safe", report.Drugs[0].Explanation)
}

func TestAssessmentService_BuildProfileDeterministic(t *testing.T) {
	svc := newTestAssessmentService(t, nil)

	doc := fullPanelDocument("0/1")
	first, count1, err := svc.BuildProfile(doc)
	require.NoError(t, err)
	second, count2, err := svc.BuildProfile(doc)
	require.NoError(t, err)

	assert.Equal(t, count1, count2)
	assert.Equal(t, first, second)
}
