package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmgx-twin-server/internal/config"
	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
	"github.com/pharmgx-twin-server/internal/service"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE1\n" +
	"chr10\t94781859\trs4244285\tG\tA\t99\tPASS\t.\tGT:DP\t1/1:30\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1", Port: 8080,
			MaxUploadMB: 4, RateLimitRPS: 1000, RateBurst: 1000,
		},
		Guidelines: config.GuidelinesConfig{Backend: "static"},
		Logging:    config.LoggingConfig{Level: "info", Format: "json"},
	}

	dataset := guidelines.DefaultDataset()
	simulator, err := service.NewPKSimulatorService(dataset, logger)
	require.NoError(t, err)

	assessment := service.NewAssessmentService(
		service.NewVariantParserService(logger),
		service.NewDiplotypeCallerService(logger),
		service.NewPhenotypeClassifierService(logger),
		service.NewRiskEvaluatorService(dataset, logger),
		simulator,
		dataset,
		nil,
		logger,
	)

	return NewServer(cfg, assessment, dataset, nil, logger)
}

func multipartBody(t *testing.T, vcf string, drugs string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("vcf", "sample.vcf")
	require.NoError(t, err)
	_, err = part.Write([]byte(vcf))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("drugs", drugs))
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, guidelines.DefaultDatasetVersion, body["dataset_version"])
}

func TestHandleListDrugs(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/drugs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Drugs []string `json:"drugs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Drugs, 10)
	assert.Contains(t, body.Drugs, "CODEINE")
}

func TestHandleAssess_MultipartUpload(t *testing.T) {
	server := newTestServer(t)

	body, contentType := multipartBody(t, sampleVCF, "clopidogrel, omeprazole")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report domain.AssessmentReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	require.Len(t, report.Drugs, 2)
	assert.Equal(t, "CLOPIDOGREL", report.Drugs[0].Assessment.Drug, "drug names are upper-cased")
	assert.Equal(t, "OMEPRAZOLE", report.Drugs[1].Assessment.Drug)
	assert.Equal(t, "PM", string(report.Drugs[0].Assessment.PhenotypeCode))
	assert.NotEqual(t, "Safe", report.Drugs[0].Assessment.RiskLabel)
	assert.NotEmpty(t, report.Drugs[0].Simulation.Points)
}

func TestHandleAssess_JSONBody(t *testing.T) {
	server := newTestServer(t)

	payload, err := json.Marshal(assessJSONRequest{Document: sampleVCF, Drugs: []string{"warfarin"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report domain.AssessmentReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Drugs, 1)
	assert.Equal(t, "WARFARIN", report.Drugs[0].Assessment.Drug)
}

func TestHandleAssess_ValidationErrors(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name     string
		vcf      string
		drugs    string
		wantCode string
	}{
		{
			name:     "missing format header",
			vcf:      "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\nchr1\t1\trs1\tA\tG\t9\tPASS\t.\tGT\t0/1\n",
			drugs:    "WARFARIN",
			wantCode: domain.ErrCodeInvalidFormat,
		},
		{
			name:     "no variant rows",
			vcf:      "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n",
			drugs:    "WARFARIN",
			wantCode: domain.ErrCodeEmptyDocument,
		},
		{
			name:     "empty drug list",
			vcf:      sampleVCF,
			drugs:    " , ",
			wantCode: domain.ErrCodeInvalidInput,
		},
		{
			name:     "too many drugs",
			vcf:      sampleVCF,
			drugs:    strings.Repeat("WARFARIN,", 40),
			wantCode: domain.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.vcf, tt.drugs)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", body)
			req.Header.Set("Content-Type", contentType)

			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var apiErr domain.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestHandleAssess_MissingUpload(t *testing.T) {
	server := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("drugs", "WARFARIN"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrCodeInvalidInput, apiErr.Code)
}
