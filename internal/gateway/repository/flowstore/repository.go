package flowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"flowcanvas/internal/flow"
)

// Store persists saved flow documents. Saves are appends: the same id may
// be stored more than once and List returns records in insertion order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
}

// ErrStoreUnavailable is returned by stores that are nil or not configured.
var ErrStoreUnavailable = errors.New("flow store is not available")

// Record is one saved flow. Document already carries the id and updatedAt
// keys written at save time.
type Record struct {
	ID        string
	UpdatedAt time.Time
	Document  *flow.Document
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Document = r.Document.Clone()
	return r
}

func validateRecord(rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if rec.Document == nil {
		return fmt.Errorf("document is required")
	}
	return nil
}

// envelope is the serialized form used by the key-value backends.
type envelope struct {
	ID        string         `json:"id"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Document  *flow.Document `json:"document"`
}

func encodeRecord(rec Record) ([]byte, error) {
	raw, err := json.Marshal(envelope{ID: rec.ID, UpdatedAt: rec.UpdatedAt.UTC(), Document: rec.Document})
	if err != nil {
		return nil, fmt.Errorf("encode flow record %s: %w", rec.ID, err)
	}
	return raw, nil
}

func decodeRecord(raw []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Record{}, fmt.Errorf("decode flow record: %w", err)
	}
	if env.Document == nil {
		env.Document = &flow.Document{}
	}
	return Record{ID: env.ID, UpdatedAt: env.UpdatedAt, Document: env.Document}, nil
}
