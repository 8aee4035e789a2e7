// Package repository persists the de-identified assessment audit trail.
// Only derived run telemetry is stored: request ids, drug names, risk
// categories and timings. Genotypes, variants and uploaded documents never
// reach this layer.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
)

// AuditEntry is one de-identified record of a completed assessment run.
type AuditEntry struct {
	RequestID      string
	DatasetVersion string
	DrugCount      int
	VariantCount   int
	GCIScore       float64
	DurationMS     int64
	DrugRisks      []DrugRiskSummary
	CreatedAt      time.Time
}

// DrugRiskSummary is the per-drug slice of an audit entry.
type DrugRiskSummary struct {
	Drug      string
	Risk      string
	Severity  string
	KnownDrug bool
}

// AuditRepository writes assessment telemetry to PostgreSQL.
type AuditRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *pgxpool.Pool, logger *logrus.Logger) *AuditRepository {
	return &AuditRepository{
		db:  db,
		log: logger,
	}
}

// EntryFromReport derives the persistable telemetry from a finished report.
// The mapping is intentionally lossy: nothing genomic survives it.
func EntryFromReport(report *domain.AssessmentReport, duration time.Duration) AuditEntry {
	entry := AuditEntry{
		RequestID:      report.RequestID,
		DatasetVersion: report.DatasetVersion,
		DrugCount:      len(report.Drugs),
		VariantCount:   report.VariantCount,
		GCIScore:       report.GCIScore,
		DurationMS:     duration.Milliseconds(),
		DrugRisks:      make([]DrugRiskSummary, 0, len(report.Drugs)),
		CreatedAt:      report.GeneratedAt,
	}

	for _, dr := range report.Drugs {
		if dr == nil || dr.Assessment == nil {
			continue
		}
		entry.DrugRisks = append(entry.DrugRisks, DrugRiskSummary{
			Drug:      dr.Assessment.Drug,
			Risk:      dr.Assessment.RiskLabel,
			Severity:  string(dr.Assessment.Severity),
			KnownDrug: dr.Assessment.Gene != "",
		})
	}

	return entry
}

// Record inserts one audit entry and its per-drug rows.
func (r *AuditRepository) Record(ctx context.Context, entry AuditEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning audit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO assessment_audit (
			request_id, dataset_version, drug_count, variant_count,
			gci_score, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.RequestID,
		entry.DatasetVersion,
		entry.DrugCount,
		entry.VariantCount,
		entry.GCIScore,
		entry.DurationMS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	for _, dr := range entry.DrugRisks {
		_, err = tx.Exec(ctx, `
			INSERT INTO assessment_audit_drugs (request_id, drug, risk, severity, known_drug)
			VALUES ($1, $2, $3, $4, $5)`,
			entry.RequestID, dr.Drug, dr.Risk, dr.Severity, dr.KnownDrug,
		)
		if err != nil {
			return fmt.Errorf("inserting audit drug row for %s: %w", dr.Drug, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing audit transaction: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"request_id":  entry.RequestID,
		"drug_count":  entry.DrugCount,
		"duration_ms": entry.DurationMS,
	}).Debug("Assessment audit entry recorded")

	return nil
}

// RiskCounts returns how many audited drug assessments fell into each risk
// category since the cutoff.
func (r *AuditRepository) RiskCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.risk, COUNT(*)
		FROM assessment_audit_drugs d
		JOIN assessment_audit a ON a.request_id = d.request_id
		WHERE a.created_at >= $1
		GROUP BY d.risk`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("querying risk counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var risk string
		var count int
		if err := rows.Scan(&risk, &count); err != nil {
			return nil, fmt.Errorf("scanning risk count row: %w", err)
		}
		counts[risk] = count
	}
	return counts, rows.Err()
}
