// Package snapshot exports the whole store to a portable document and restores it.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/store"
)

// FormatVersion is the only document layout this build reads and writes.
const FormatVersion = 1

// Document is the serialized form of a snapshot.
type Document struct {
	FormatVersion int                          `json:"formatVersion"`
	SchemaVersion uint                         `json:"schemaVersion"`
	ExportedAt    time.Time                    `json:"exportedAt"`
	Tables        map[string][]json.RawMessage `json:"tables"`
}

// Service exports, imports and backs up snapshots of one store.
type Service struct {
	store  *store.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for export timestamps and backup names. Nil keeps time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. Nil keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a snapshot service over st.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entityTables are the registry's tables minus the sync bookkeeping.
func (s *Service) entityTables() []string {
	var out []string
	for _, t := range s.store.Registry().Tables() {
		if !domain.IsInternalTable(t) {
			out = append(out, t)
		}
	}
	return out
}

// Export reads every entity table inside one transaction, so concurrent writers
// cannot tear the snapshot.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	tables := s.entityTables()
	doc := Document{
		FormatVersion: FormatVersion,
		SchemaVersion: s.store.Registry().Version(),
		ExportedAt:    s.now().UTC(),
		Tables:        make(map[string][]json.RawMessage, len(tables)),
	}

	err := s.store.Transact(ctx, tables, func(_ context.Context, tx *store.Tx) error {
		for _, t := range tables {
			rows, err := tx.GetAll(t)
			if err != nil {
				return err
			}
			records := make([]json.RawMessage, 0, len(rows))
			for _, r := range rows {
				records = append(records, r.Value)
			}
			doc.Tables[t] = records
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}

	blob, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return blob, nil
}

type keyedRecord struct {
	ID string `json:"id"`
}

// validate checks the whole document before anything is written.
func (s *Service) validate(blob []byte) (*Document, map[string][]store.Row, error) {
	var doc Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: "document is not valid JSON", Err: err}
	}
	if doc.FormatVersion != FormatVersion {
		return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("unknown format version %d", doc.FormatVersion)}
	}
	if doc.SchemaVersion == 0 {
		return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: "schema version is missing"}
	}
	if current := s.store.Registry().Version(); doc.SchemaVersion > current {
		return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("schema version %d is newer than %d", doc.SchemaVersion, current)}
	}
	if doc.Tables == nil {
		return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: "tables are missing"}
	}

	reg := s.store.Registry()
	for name := range doc.Tables {
		if !reg.HasTable(name) || domain.IsInternalTable(name) {
			return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("unknown table %q", name)}
		}
	}

	rows := make(map[string][]store.Row, len(doc.Tables))
	for _, t := range s.entityTables() {
		records, ok := doc.Tables[t]
		if !ok && reg.TableSince(t) > doc.SchemaVersion {
			// Declared after the snapshot was taken.
			continue
		}
		if !ok {
			return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("table %q is missing", t)}
		}
		seen := make(map[string]bool, len(records))
		for i, raw := range records {
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || trimmed[0] != '{' {
				return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("%s[%d] is not an object", t, i)}
			}
			var k keyedRecord
			if err := json.Unmarshal(trimmed, &k); err != nil || k.ID == "" {
				return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("%s[%d] has no string id", t, i), Err: err}
			}
			if seen[k.ID] {
				return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("%s has duplicate id %q", t, k.ID)}
			}
			seen[k.ID] = true

			var compact bytes.Buffer
			if err := json.Compact(&compact, trimmed); err != nil {
				return nil, nil, &apperrors.IncompatibleSnapshotError{Reason: fmt.Sprintf("%s[%d] is malformed", t, i), Err: err}
			}
			rows[t] = append(rows[t], store.Row{Key: k.ID, Value: compact.Bytes()})
		}
	}
	return &doc, rows, nil
}

// Import replaces every entity table with the snapshot's contents atomically. Pending
// local changes are dropped because the snapshot supersedes them. No change record is
// written. A snapshot from an older schema may omit tables declared after it; those are
// imported empty and the data steps of later versions run over the imported rows.
func (s *Service) Import(ctx context.Context, blob []byte) error {
	doc, rows, err := s.validate(blob)
	if err != nil {
		return err
	}

	tables := append(s.entityTables(), domain.TableChanges)
	err = s.store.Transact(ctx, tables, func(_ context.Context, tx *store.Tx) error {
		for _, t := range s.entityTables() {
			if err := tx.Clear(t); err != nil {
				return err
			}
			if err := tx.BulkPutRaw(t, rows[t]); err != nil {
				return fmt.Errorf("failed to restore %s: %w", t, err)
			}
		}
		for _, m := range s.store.Registry().UpgradeSteps(doc.SchemaVersion) {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("failed to upgrade snapshot to version %d: %w", m.Version, err)
			}
		}
		// Delete keeps the bucket sequence, so change ids stay above the watermark.
		pending, err := tx.GetAll(domain.TableChanges)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if err := tx.Delete(domain.TableChanges, p.Key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "Snapshot imported",
		slog.Time("exported_at", doc.ExportedAt),
		slog.Uint64("schema_version", uint64(doc.SchemaVersion)))
	return nil
}

// BackupName is the default name of a backup taken at t.
func BackupName(t time.Time) string {
	return "mma-snapshot-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// Backup exports the store into sink. An empty name is replaced by BackupName(now).
func (s *Service) Backup(ctx context.Context, sink portsrepo.BackupSink, name string) (string, error) {
	if name == "" {
		name = BackupName(s.now())
	}
	blob, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	if err := sink.Put(ctx, name, blob); err != nil {
		return "", fmt.Errorf("failed to store backup %s: %w", name, err)
	}
	s.logger.InfoContext(ctx, "Backup written", slog.String("name", name), slog.Int("bytes", len(blob)))
	return name, nil
}

// Restore imports the named backup from sink.
func (s *Service) Restore(ctx context.Context, sink portsrepo.BackupSink, name string) error {
	blob, err := sink.Get(ctx, name)
	if err != nil {
		return err
	}
	return s.Import(ctx, blob)
}

// List returns the backups stored in sink.
func (s *Service) List(ctx context.Context, sink portsrepo.BackupSink) ([]string, error) {
	return sink.List(ctx)
}
