package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

// archiveContentType is the JSONL media type.
const archiveContentType = "application/x-ndjson"

// multipartThreshold is the payload size above which an upload switches to
// the multipart manager.
const multipartThreshold = 64 * 1024 * 1024

// BlobWriter is the upload surface the archiver needs.
type BlobWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, key string, data io.Reader, partSize int64) error
}

// Archiver drains journal rows past the retention cutoff into one JSONL
// object per run, then deletes the archived rows from the journal.
type Archiver struct {
	journal domain.AuditJournal
	writer  BlobWriter
	logger  *slog.Logger
}

// NewArchiver creates an Archiver with all required dependencies.
func NewArchiver(journal domain.AuditJournal, writer BlobWriter, logger *slog.Logger) *Archiver {
	return &Archiver{
		journal: journal,
		writer:  writer,
		logger:  logger,
	}
}

// Run archives every journal row created before cutoff and returns the
// number of rows archived. An empty selection is a successful no-op with no
// upload. Rows are pruned only after the upload succeeds, so a failed run
// leaves the journal intact and a rerun re-archives the same rows under a
// fresh run ID.
func (a *Archiver) Run(ctx context.Context, cutoff time.Time) (int64, error) {
	entries, err := a.journal.ListBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(entries) == 0 {
		a.logger.InfoContext(ctx, "s3blob: nothing to archive",
			slog.Time("cutoff", cutoff),
		)
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive marshal: %w", err)
	}

	key := archiveKey(time.Now().UTC(), uuid.NewString())
	if int64(len(buf)) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, key, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, key, bytes.NewReader(buf), archiveContentType)
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	deleted, err := a.journal.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: prune after upload to %s: %w", key, err)
	}
	if deleted != int64(len(entries)) {
		a.logger.WarnContext(ctx, "s3blob: archived and pruned counts differ",
			slog.Int("archived", len(entries)),
			slog.Int64("pruned", deleted),
		)
	}

	a.logger.InfoContext(ctx, "s3blob: archive run complete",
		slog.String("key", key),
		slog.Int("rows", len(entries)),
		slog.Time("cutoff", cutoff),
	)
	return int64(len(entries)), nil
}

// archiveKey builds the object key for one run, partitioned by run date.
//
//	audit/2026/08/25/1b4e28ba-2fa1-11d2-883f-0016d3cca427.jsonl
func archiveKey(runTime time.Time, runID string) string {
	return fmt.Sprintf("audit/%s/%s.jsonl", runTime.Format("2006/01/02"), runID)
}

// marshalJSONL serializes records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
