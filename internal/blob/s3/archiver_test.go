package s3blob_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3blob "github.com/gutmanan/polymarket-mcp/internal/blob/s3"
	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// --- mocks ---

type fakeJournal struct {
	entries   []domain.AuditEntry
	listErr   error
	deleteErr error

	deletedBefore time.Time
	deleteCalls   int
}

func (j *fakeJournal) Log(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (j *fakeJournal) ListBefore(_ context.Context, _ time.Time) ([]domain.AuditEntry, error) {
	return j.entries, j.listErr
}

func (j *fakeJournal) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	j.deleteCalls++
	j.deletedBefore = cutoff
	if j.deleteErr != nil {
		return 0, j.deleteErr
	}
	return int64(len(j.entries)), nil
}

type fakeWriter struct {
	putErr error

	key            string
	contentType    string
	body           []byte
	putCalls       int
	multipartCalls int
}

func (w *fakeWriter) Put(_ context.Context, key string, data io.Reader, contentType string) error {
	w.putCalls++
	if w.putErr != nil {
		return w.putErr
	}
	w.key = key
	w.contentType = contentType
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.body = body
	return nil
}

func (w *fakeWriter) PutMultipart(_ context.Context, key string, data io.Reader, _ int64) error {
	w.multipartCalls++
	return w.Put(context.Background(), key, data, "")
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func journalEntries(n int) []domain.AuditEntry {
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]domain.AuditEntry, n)
	for i := range entries {
		entries[i] = domain.AuditEntry{
			ID:        int64(i + 1),
			Event:     domain.AuditPlaceLimitOrder,
			Detail:    map[string]any{"order_id": "ord-1", "price": 0.5},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return entries
}

// --- tests ---

func TestArchiverRun(t *testing.T) {
	journal := &fakeJournal{entries: journalEntries(3)}
	writer := &fakeWriter{}
	archiver := s3blob.NewArchiver(journal, writer, testLogger())

	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	archived, err := archiver.Run(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), archived)

	assert.Equal(t, 1, writer.putCalls)
	assert.Zero(t, writer.multipartCalls)
	assert.Equal(t, "application/x-ndjson", writer.contentType)
	assert.Regexp(t, `^audit/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.jsonl$`, writer.key)

	lines := strings.Split(strings.TrimRight(string(writer.body), "\n"), "\n")
	require.Len(t, lines, 3)
	var row domain.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	assert.Equal(t, int64(1), row.ID)
	assert.Equal(t, domain.AuditPlaceLimitOrder, row.Event)
	assert.Equal(t, "ord-1", row.Detail["order_id"])

	assert.Equal(t, 1, journal.deleteCalls)
	assert.True(t, journal.deletedBefore.Equal(cutoff))
}

func TestArchiverRun_EmptyJournalSkipsUpload(t *testing.T) {
	journal := &fakeJournal{}
	writer := &fakeWriter{}
	archiver := s3blob.NewArchiver(journal, writer, testLogger())

	archived, err := archiver.Run(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, archived)
	assert.Zero(t, writer.putCalls)
	assert.Zero(t, journal.deleteCalls)
}

func TestArchiverRun_UploadFailureKeepsRows(t *testing.T) {
	journal := &fakeJournal{entries: journalEntries(2)}
	writer := &fakeWriter{putErr: errors.New("access denied")}
	archiver := s3blob.NewArchiver(journal, writer, testLogger())

	_, err := archiver.Run(context.Background(), time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive upload")
	assert.Zero(t, journal.deleteCalls, "rows must survive a failed upload")
}

func TestArchiverRun_PruneFailureNamesObject(t *testing.T) {
	journal := &fakeJournal{
		entries:   journalEntries(2),
		deleteErr: errors.New("connection reset"),
	}
	writer := &fakeWriter{}
	archiver := s3blob.NewArchiver(journal, writer, testLogger())

	_, err := archiver.Run(context.Background(), time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune after upload")
	assert.Contains(t, err.Error(), writer.key)
}

func TestArchiverRun_ListFailure(t *testing.T) {
	journal := &fakeJournal{listErr: errors.New("relation does not exist")}
	archiver := s3blob.NewArchiver(journal, &fakeWriter{}, testLogger())

	_, err := archiver.Run(context.Background(), time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive query")
}
