package flowstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"flowcanvas/internal/flow"
)

const flowRecordsTable = "flow_records"

var flowRecordsDDL = map[string]string{
	dialect.Postgres: `
CREATE TABLE IF NOT EXISTS flow_records (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    document TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flow_records_id ON flow_records(id);
`,
	dialect.SQLite: `
CREATE TABLE IF NOT EXISTS flow_records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    document TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flow_records_id ON flow_records(id);
`,
}

// SQLStore keeps saved flows in a Postgres or SQLite table. Rows are
// returned in insertion order.
type SQLStore struct {
	db      *sql.DB
	dialect string

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewSQLStore wraps db. name is an ent dialect name (dialect.Postgres or
// dialect.SQLite).
func NewSQLStore(db *sql.DB, name string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if _, ok := flowRecordsDDL[name]; !ok {
		return nil, fmt.Errorf("unsupported sql dialect: %s", name)
	}
	return &SQLStore{db: db, dialect: name}, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	// A failed attempt is retried by the next caller.
	if _, err := s.db.ExecContext(ctx, flowRecordsDDL[s.dialect]); err != nil {
		return fmt.Errorf("ensure flow schema: %w", err)
	}
	s.schemaReady = true
	return nil
}

func (s *SQLStore) Append(ctx context.Context, rec Record) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	doc, err := rec.Document.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode flow %s: %w", rec.ID, err)
	}
	query, args := entsql.Dialect(s.dialect).
		Insert(flowRecordsTable).
		Columns("id", "updated_at", "document").
		Values(rec.ID, rec.UpdatedAt.UTC().Format(time.RFC3339Nano), string(doc)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert flow %s: %w", rec.ID, err)
	}
	return nil
}

type flowRow struct {
	ID        string `sql:"id"`
	UpdatedAt string `sql:"updated_at"`
	Document  string `sql:"document"`
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query, args := entsql.Dialect(s.dialect).
		Select("id", "updated_at", "document").
		From(entsql.Table(flowRecordsTable)).
		OrderBy("seq").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flows: %w", err)
	}
	defer rows.Close()

	var scanned []flowRow
	if err := entsql.ScanSlice(rows, &scanned); err != nil {
		return nil, fmt.Errorf("scan flows: %w", err)
	}
	out := make([]Record, 0, len(scanned))
	for _, row := range scanned {
		doc, err := flow.Parse([]byte(row.Document))
		if err != nil {
			return nil, fmt.Errorf("flow %s: %w", row.ID, err)
		}
		updated, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("flow %s: updated_at: %w", row.ID, err)
		}
		out = append(out, Record{ID: row.ID, UpdatedAt: updated, Document: doc})
	}
	return out, nil
}
