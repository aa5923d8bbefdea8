package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"flowcanvas/internal/ctxlog"
	"flowcanvas/internal/flow"
	"flowcanvas/internal/gateway/repository/flowstore"
)

// isoMillis matches the timestamp layout browsers produce for updatedAt.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrSaveFailed = errors.New("failed to save flow")
	ErrListFailed = errors.New("failed to fetch flows")
	ErrNotFound   = errors.New("flow not found")
)

// Service saves and lists flow documents.
type Service struct {
	store flowstore.Store
	now   func() time.Time
}

func New(store flowstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save stores a copy of doc stamped with updatedAt and id and returns the
// id. The id comes from _id.$oid when present, otherwise it is the current
// time in milliseconds.
func (s *Service) Save(ctx context.Context, doc *flow.Document) (string, error) {
	if s == nil || s.store == nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, flowstore.ErrStoreUnavailable)
	}
	now := s.now()
	enriched := doc.Clone()
	if enriched == nil {
		enriched = &flow.Document{}
	}
	id := documentID(enriched, now)
	if err := enriched.SetField("updatedAt", now.UTC().Format(isoMillis)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if err := enriched.SetField("id", id); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	log := ctxlog.FromContext(ctx)
	if err := s.store.Append(ctx, flowstore.Record{ID: id, UpdatedAt: now, Document: enriched}); err != nil {
		log.Error("save flow failed", slog.String("flow_id", id), slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	log.Info("flow saved", slog.String("flow_id", id))
	return id, nil
}

// List returns every saved document in save order.
func (s *Service) List(ctx context.Context) ([]*flow.Document, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, flowstore.ErrStoreUnavailable)
	}
	records, err := s.store.List(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Error("list flows failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	out := make([]*flow.Document, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Document)
	}
	return out, nil
}

// ExportYAML renders the saved document at index as YAML.
func (s *Service) ExportYAML(ctx context.Context, index int) ([]byte, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(docs) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return flow.EncodeYAML(docs[index])
}

func documentID(doc *flow.Document, now time.Time) string {
	if raw, ok := doc.Field("_id"); ok {
		var ref struct {
			OID any `json:"$oid"`
		}
		if err := json.Unmarshal(raw, &ref); err == nil {
			if oid, ok := ref.OID.(string); ok && oid != "" {
				return oid
			}
		}
	}
	return strconv.FormatInt(now.UnixMilli(), 10)
}
