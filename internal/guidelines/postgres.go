package guidelines

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL. It is used
// when several instances share one guideline database; the schema is created
// via migrations, not by the store itself.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL guideline store on an existing
// connection. It expects the schema to already exist.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a PostgreSQL guideline store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save writes a complete dataset snapshot inside one transaction using
// upserts, replacing the stored snapshot.
func (s *PostgresStore) Save(ctx context.Context, ds *Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"guideline_genes", "guideline_drugs", "guideline_pk"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	meta := datasetMeta{
		DefaultPK:          ds.DefaultPK,
		Risk:               ds.Risk,
		PhenotypeModifiers: ds.PhenotypeModifiers,
	}
	metaPayload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO guideline_meta (id, version, payload)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET version = $1, payload = $2
	`, ds.Version, string(metaPayload)); err != nil {
		return fmt.Errorf("failed to upsert meta: %w", err)
	}

	for gene, table := range ds.Genes {
		payload, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("failed to marshal gene %s: %w", gene, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO guideline_genes (gene, payload) VALUES ($1, $2)",
			gene, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert gene %s: %w", gene, err)
		}
	}

	for drug, rule := range ds.Drugs {
		payload, err := json.Marshal(rule)
		if err != nil {
			return fmt.Errorf("failed to marshal drug %s: %w", drug, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO guideline_drugs (drug, payload) VALUES ($1, $2)",
			drug, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert drug %s: %w", drug, err)
		}
	}

	for drug, params := range ds.PK {
		payload, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal PK %s: %w", drug, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO guideline_pk (drug, payload) VALUES ($1, $2)",
			drug, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert PK %s: %w", drug, err)
		}
	}

	return tx.Commit()
}

// Load reads the complete dataset snapshot.
func (s *PostgresStore) Load(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{
		Genes: make(map[string]GeneTable),
		Drugs: make(map[string]DrugRule),
		PK:    make(map[string]PKParameters),
	}

	var metaPayload string
	err := s.db.QueryRowContext(ctx,
		"SELECT version, payload FROM guideline_meta WHERE id = 1",
	).Scan(&ds.Version, &metaPayload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("guideline store is empty: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load meta: %w", err)
	}

	var meta datasetMeta
	if err := json.Unmarshal([]byte(metaPayload), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta: %w", err)
	}
	ds.DefaultPK = meta.DefaultPK
	ds.Risk = meta.Risk
	ds.PhenotypeModifiers = meta.PhenotypeModifiers

	rows, err := s.db.QueryContext(ctx, "SELECT gene, payload FROM guideline_genes")
	if err != nil {
		return nil, fmt.Errorf("failed to query genes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gene, payload string
		if err := rows.Scan(&gene, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan gene row: %w", err)
		}
		var table GeneTable
		if err := json.Unmarshal([]byte(payload), &table); err != nil {
			return nil, fmt.Errorf("failed to decode gene %s: %w", gene, err)
		}
		ds.Genes[gene] = table
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drugRows, err := s.db.QueryContext(ctx, "SELECT drug, payload FROM guideline_drugs")
	if err != nil {
		return nil, fmt.Errorf("failed to query drugs: %w", err)
	}
	defer drugRows.Close()
	for drugRows.Next() {
		var drug, payload string
		if err := drugRows.Scan(&drug, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan drug row: %w", err)
		}
		var rule DrugRule
		if err := json.Unmarshal([]byte(payload), &rule); err != nil {
			return nil, fmt.Errorf("failed to decode drug %s: %w", drug, err)
		}
		ds.Drugs[drug] = rule
	}
	if err := drugRows.Err(); err != nil {
		return nil, err
	}

	pkRows, err := s.db.QueryContext(ctx, "SELECT drug, payload FROM guideline_pk")
	if err != nil {
		return nil, fmt.Errorf("failed to query PK parameters: %w", err)
	}
	defer pkRows.Close()
	for pkRows.Next() {
		var drug, payload string
		if err := pkRows.Scan(&drug, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan PK row: %w", err)
		}
		var params PKParameters
		if err := json.Unmarshal([]byte(payload), &params); err != nil {
			return nil, fmt.Errorf("failed to decode PK %s: %w", drug, err)
		}
		ds.PK[drug] = params
	}
	if err := pkRows.Err(); err != nil {
		return nil, err
	}

	return ds, nil
}

// Version returns the stored dataset version.
func (s *PostgresStore) Version(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM guideline_meta WHERE id = 1",
	).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version: %w", err)
	}
	return version, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
