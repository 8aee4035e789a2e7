package guidelines

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pharmgx-twin-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite. It is the default
// choice for single-node deployments where the guideline dataset ships as a
// file next to the binary.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) a SQLite guideline store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// createSQLiteSchema creates the guideline tables and indexes.
func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS guideline_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS guideline_genes (
		gene TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS guideline_drugs (
		drug TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS guideline_pk (
		drug TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);
	`

	_, err := db.Exec(schema)
	return err
}

// datasetMeta is the non-tabular part of a dataset stored in guideline_meta.
type datasetMeta struct {
	DefaultPK          PKParameters                     `json:"default_pk"`
	Risk               RiskTable                        `json:"risk"`
	PhenotypeModifiers map[domain.PhenotypeCode]float64 `json:"phenotype_modifiers"`
}

// Save writes a complete dataset snapshot inside one transaction, replacing
// whatever was stored before.
func (s *SQLiteStore) Save(ctx context.Context, ds *Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"guideline_meta", "guideline_genes", "guideline_drugs", "guideline_pk"} {
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
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO guideline_meta (id, version, payload) VALUES (1, ?, ?)",
		ds.Version, string(metaPayload),
	); err != nil {
		return fmt.Errorf("failed to insert meta: %w", err)
	}

	for gene, table := range ds.Genes {
		payload, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("failed to marshal gene %s: %w", gene, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO guideline_genes (gene, payload) VALUES (?, ?)", gene, string(payload),
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
			"INSERT INTO guideline_drugs (drug, payload) VALUES (?, ?)", drug, string(payload),
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
			"INSERT INTO guideline_pk (drug, payload) VALUES (?, ?)", drug, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert PK %s: %w", drug, err)
		}
	}

	return tx.Commit()
}

// Load reads the complete dataset snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*Dataset, error) {
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

	if err := s.loadGenes(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadDrugs(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadPK(ctx, ds); err != nil {
		return nil, err
	}

	return ds, nil
}

func (s *SQLiteStore) loadGenes(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, "SELECT gene, payload FROM guideline_genes")
	if err != nil {
		return fmt.Errorf("failed to query genes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gene, payload string
		if err := rows.Scan(&gene, &payload); err != nil {
			return fmt.Errorf("failed to scan gene row: %w", err)
		}
		var table GeneTable
		if err := json.Unmarshal([]byte(payload), &table); err != nil {
			return fmt.Errorf("failed to decode gene %s: %w", gene, err)
		}
		ds.Genes[gene] = table
	}
	return rows.Err()
}

func (s *SQLiteStore) loadDrugs(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, "SELECT drug, payload FROM guideline_drugs")
	if err != nil {
		return fmt.Errorf("failed to query drugs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var drug, payload string
		if err := rows.Scan(&drug, &payload); err != nil {
			return fmt.Errorf("failed to scan drug row: %w", err)
		}
		var rule DrugRule
		if err := json.Unmarshal([]byte(payload), &rule); err != nil {
			return fmt.Errorf("failed to decode drug %s: %w", drug, err)
		}
		ds.Drugs[drug] = rule
	}
	return rows.Err()
}

func (s *SQLiteStore) loadPK(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, "SELECT drug, payload FROM guideline_pk")
	if err != nil {
		return fmt.Errorf("failed to query PK parameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var drug, payload string
		if err := rows.Scan(&drug, &payload); err != nil {
			return fmt.Errorf("failed to scan PK row: %w", err)
		}
		var params PKParameters
		if err := json.Unmarshal([]byte(payload), &params); err != nil {
			return fmt.Errorf("failed to decode PK %s: %w", drug, err)
		}
		ds.PK[drug] = params
	}
	return rows.Err()
}

// Version returns the stored dataset version.
func (s *SQLiteStore) Version(ctx context.Context) (string, error) {
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
