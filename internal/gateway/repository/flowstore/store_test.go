package flowstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"flowcanvas/internal/flow"
)

func mustDocument(t *testing.T, raw string) *flow.Document {
	t.Helper()
	doc, err := flow.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

func sampleRecords(t *testing.T) []Record {
	base := time.Date(2025, 3, 4, 5, 6, 7, 8000, time.UTC)
	return []Record{
		{ID: "flow-a", UpdatedAt: base, Document: mustDocument(t, `{"id":"flow-a","partner_code":"ACME","composition":{"name":"A","stages":[{"id":"s1","tasks":[]}]}}`)},
		{ID: "flow-b", UpdatedAt: base.Add(time.Second), Document: mustDocument(t, `{"id":"flow-b","nodes":[{"id":"s1","position":{"x":1.5,"y":2},"data":{"type":"STAGE"}}],"edges":[]}`)},
		{ID: "flow-a", UpdatedAt: base.Add(2 * time.Second), Document: mustDocument(t, `{"id":"flow-a","composition":{"name":"A v2"}}`)},
	}
}

// exerciseStore checks the append-only contract shared by every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := sampleRecords(t)
	for _, rec := range want {
		require.NoError(t, s.Append(ctx, rec))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt), "record %d: updatedAt %v != %v", i, want[i].UpdatedAt, got[i].UpdatedAt)
		wantDoc, err := json.Marshal(want[i].Document)
		require.NoError(t, err)
		gotDoc, err := json.Marshal(got[i].Document)
		require.NoError(t, err)
		assert.JSONEq(t, string(wantDoc), string(gotDoc))
	}

	assert.Error(t, s.Append(ctx, Record{ID: " ", Document: &flow.Document{}}))
	assert.Error(t, s.Append(ctx, Record{ID: "x"}))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := sampleRecords(t)[0]
	require.NoError(t, s.Append(ctx, rec))

	rec.Document.Composition.Name = "changed before list"
	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Document.Composition.Name)

	got[0].Document.Composition.Name = "changed after list"
	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", again[0].Document.Composition.Name)
}

func TestNilStores(t *testing.T) {
	ctx := context.Background()
	rec := sampleRecords(t)[0]

	var mem *MemoryStore
	assert.True(t, errors.Is(mem.Append(ctx, rec), ErrStoreUnavailable))
	_, err := mem.List(ctx)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	var redisStore *RedisStore
	assert.True(t, errors.Is(redisStore.Append(ctx, rec), ErrStoreUnavailable))

	var s3 *S3Store
	assert.True(t, errors.Is(s3.Append(ctx, rec), ErrStoreUnavailable))

	assert.True(t, errors.Is(NewDiskStore("").Append(ctx, rec), ErrStoreUnavailable))
}

func TestDiskStore(t *testing.T) {
	exerciseStore(t, NewDiskStore(filepath.Join(t.TempDir(), "nested", "flows.jsonl")))
}

func TestDiskStore_HonorsCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.jsonl")
	s := NewDiskStore(path)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Append(ctx, sampleRecords(t)[0]), context.Canceled)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no write after cancellation")
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiskStore_ReportsCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"ok\",\"document\":{}}\nnot json\n"), 0o644))

	_, err := NewDiskStore(path).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLStore_SQLite(t *testing.T) {
	s, err := NewSQLStore(openSQLite(t), dialect.SQLite)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLStore_RetriesSchemaAfterCancelledCall(t *testing.T) {
	s, err := NewSQLStore(openSQLite(t), dialect.SQLite)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.List(cancelled)
	require.ErrorIs(t, err, context.Canceled)

	rec := sampleRecords(t)[0]
	require.NoError(t, s.Append(context.Background(), rec))
	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
}

func TestNewSQLStore_Validation(t *testing.T) {
	_, err := NewSQLStore(nil, dialect.SQLite)
	assert.Error(t, err)
	_, err = NewSQLStore(openSQLite(t), dialect.MySQL)
	assert.Error(t, err)
}

func TestSQLStore_Postgres(t *testing.T) {
	dsn := os.Getenv("FLOWCANVAS_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("FLOWCANVAS_TEST_PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`DROP TABLE IF EXISTS flow_records`)
	require.NoError(t, err)

	s, err := NewSQLStore(db, dialect.Postgres)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FLOWCANVAS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLOWCANVAS_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	prefix := fmt.Sprintf("flowcanvas:test:%d:", time.Now().UnixNano())
	s := NewRedisStore(client, prefix)
	t.Cleanup(func() { _ = client.Del(context.Background(), s.keyFlows()).Err() })
	exerciseStore(t, s)
}

func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("FLOWCANVAS_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("FLOWCANVAS_TEST_S3_ENDPOINT not set")
	}
	s, err := NewS3Store(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("FLOWCANVAS_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("FLOWCANVAS_TEST_S3_SECRET_KEY"),
		Bucket:    fmt.Sprintf("flowcanvas-test-%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}

func TestObjectKeyOrdersBySequence(t *testing.T) {
	a := objectKey(999, "flow/a")
	b := objectKey(1000, "flow/a")
	assert.True(t, strings.HasPrefix(a, s3FlowPrefix))
	assert.Less(t, a, b)
	assert.Contains(t, a, "flow%2Fa")

	s := &S3Store{}
	first := s.nextSeq(10)
	second := s.nextSeq(10)
	assert.Greater(t, second, first)
}
