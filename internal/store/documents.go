package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // driver registration
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a document does not exist or belongs to another owner.
var ErrNotFound = errors.New("document not found")

// Document is a persisted upload together with its summary.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Filename    string    `json:"filename"`
	StorageKey  string    `json:"-"`
	Summary     string    `json:"summary"`
	SummaryType string    `json:"summary_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type Documents struct {
	db *sql.DB
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenDocuments opens the SQLite database at path and applies pending migrations.
func OpenDocuments(path string) (*Documents, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	dbInstance, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create DB instance: %w", err)
	}
	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create source instance: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Debug().Str("path", path).Msg("no migrations to apply")
	} else {
		version, dirty, _ := m.Version()
		log.Info().Str("path", path).Uint("version", version).Bool("dirty", dirty).Msg("database migrated")
	}

	return &Documents{db: db}, nil
}

func (d *Documents) Close() error { return d.db.Close() }

// Ping reports whether the database is reachable.
func (d *Documents) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Create inserts doc, assigning an ID and creation time when missing.
func (d *Documents) Create(ctx context.Context, doc Document) (Document, error) {
	if strings.TrimSpace(doc.OwnerID) == "" {
		return Document{}, errors.New("owner id is empty")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	query := "insert into documents (id, owner_id, filename, storage_key, summary, summary_type, created_at) values (?, ?, ?, ?, ?, ?, ?)"
	_, err := d.db.ExecContext(ctx, query,
		doc.ID, doc.OwnerID, doc.Filename, doc.StorageKey, doc.Summary, doc.SummaryType, doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// ListByOwner returns the owner's documents, newest first.
func (d *Documents) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	query := "select id, owner_id, filename, storage_key, summary, summary_type, created_at from documents where owner_id = ? order by created_at desc, id"

	rows, err := d.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close rows")
		}
	}()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.StorageKey,
			&doc.Summary, &doc.SummaryType, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return docs, nil
}

// Get loads one document owned by ownerID.
func (d *Documents) Get(ctx context.Context, id, ownerID string) (Document, error) {
	query := "select id, owner_id, filename, storage_key, summary, summary_type, created_at from documents where id = ? and owner_id = ?"

	var doc Document
	err := d.db.QueryRowContext(ctx, query, id, ownerID).Scan(&doc.ID, &doc.OwnerID, &doc.Filename,
		&doc.StorageKey, &doc.Summary, &doc.SummaryType, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("load document: %w", err)
	}
	return doc, nil
}

// Delete removes one document owned by ownerID.
func (d *Documents) Delete(ctx context.Context, id, ownerID string) error {
	query := "delete from documents where id = ? and owner_id = ?"

	res, err := d.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
