package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/repository"
)

// maxRequestedDrugs bounds a single request's fan-out.
const maxRequestedDrugs = 32

// assessJSONRequest is the JSON alternative to the multipart upload form.
type assessJSONRequest struct {
	Document string   `json:"document" binding:"required"`
	Drugs    []string `json:"drugs" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"dataset_version": s.dataset.Version,
		"timestamp":       time.Now().UTC(),
	})
}

// handleListDrugs returns the supported drug names.
func (s *Server) handleListDrugs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"drugs": s.dataset.DrugNames(),
	})
}

// handleDatasetInfo reports the loaded guideline snapshot.
func (s *Server) handleDatasetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": s.dataset.Version,
		"genes":   s.dataset.GeneSymbols(),
		"drugs":   s.dataset.DrugNames(),
	})
}

// handleAssess runs the full pipeline for one uploaded variant document.
// Multipart uploads carry the document in the "vcf" file field and the drug
// list in the "drugs" form field; JSON bodies carry both inline.
func (s *Server) handleAssess(c *gin.Context) {
	correlationID := c.GetString("correlation_id")

	document, drugs, apiErr := s.readAssessRequest(c, correlationID)
	if apiErr != nil {
		c.JSON(http.StatusBadRequest, apiErr)
		return
	}

	started := time.Now()
	report, err := s.assessment.Assess(c.Request.Context(), document, drugs)
	if err != nil {
		status, apiErr := classifyAssessError(err, correlationID)
		c.JSON(status, apiErr)
		return
	}

	if s.audit != nil {
		// Telemetry write happens off the request path; a failed insert
		// never affects the response.
		entry := repository.EntryFromReport(report, time.Since(started))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.audit.Record(ctx, entry); err != nil {
				s.log.WithError(err).Warn("Failed to record assessment audit entry")
			}
		}()
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) readAssessRequest(c *gin.Context, correlationID string) (string, []string, *domain.APIError) {
	var document string
	var drugs []string

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req assessJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", nil, domain.NewAPIError(domain.ErrCodeInvalidInput,
				"Invalid request body", err.Error(), correlationID)
		}
		document = req.Document
		drugs = req.Drugs
	} else {
		file, err := c.FormFile("vcf")
		if err != nil {
			return "", nil, domain.NewAPIError(domain.ErrCodeInvalidInput,
				"Missing vcf file upload", err.Error(), correlationID)
		}

		f, err := file.Open()
		if err != nil {
			return "", nil, domain.NewAPIError(domain.ErrCodeInvalidInput,
				"Could not read uploaded file", err.Error(), correlationID)
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.Server.MaxUploadMB<<20))
		if err != nil {
			return "", nil, domain.NewAPIError(domain.ErrCodeInvalidInput,
				"Could not read uploaded file", err.Error(), correlationID)
		}
		document = string(data)
		drugs = splitDrugList(c.PostFormArray("drugs"))
	}

	drugs = normalizeDrugs(drugs)
	if len(drugs) == 0 {
		return "", nil, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"At least one drug is required", "", correlationID)
	}
	if len(drugs) > maxRequestedDrugs {
		return "", nil, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"Too many drugs requested", "", correlationID)
	}

	return document, drugs, nil
}

func classifyAssessError(err error, correlationID string) (int, *domain.APIError) {
	switch {
	case errors.Is(err, domain.ErrMissingFormatHeader):
		return http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeInvalidFormat,
			"Uploaded document is not a valid VCF file", err.Error(), correlationID)
	case errors.Is(err, domain.ErrNoVariants):
		return http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeEmptyDocument,
			"Uploaded document contains no variant records", err.Error(), correlationID)
	default:
		return http.StatusInternalServerError, domain.NewAPIError(domain.ErrCodeInternalServer,
			"Assessment failed", err.Error(), correlationID)
	}
}

// splitDrugList accepts both repeated form fields and comma-separated values.
func splitDrugList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			out = append(out, part)
		}
	}
	return out
}

func normalizeDrugs(drugs []string) []string {
	out := make([]string, 0, len(drugs))
	for _, d := range drugs {
		d = strings.ToUpper(strings.TrimSpace(d))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
