// Package store is the on-device embedded datastore: one bbolt bucket per table,
// one bucket per secondary index, versioned schema migrations and atomic
// multi-table transactions with commit notifications.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	bolt "go.etcd.io/bbolt"
)

var (
	metaBucket       = []byte("_meta")
	keySchemaVersion = []byte("schema_version")
	keyKDFSalt       = []byte("kdf_salt")
)

// CommitEvent describes one committed outermost transaction.
type CommitEvent struct {
	Seq    uint64
	Tables []string
}

// CommitListener is called after every commit that wrote at least one table.
// It runs on the committing goroutine and must not block.
type CommitListener func(CommitEvent)

// FieldFilter encrypts and decrypts individual record fields before persistence.
type FieldFilter interface {
	Seal(table, field string, plaintext []byte) ([]byte, error)
	Open(table, field string, ciphertext []byte) ([]byte, error)
}

// FieldFilterFactory builds a FieldFilter from the store's persistent KDF salt.
type FieldFilterFactory func(salt []byte) (FieldFilter, error)

type options struct {
	lockTimeout     time.Duration
	openTimeout     time.Duration
	logger          *slog.Logger
	filterFactory   FieldFilterFactory
	encryptedFields map[string][]string
}

// Option configures Open.
type Option func(*options)

// WithLockTimeout bounds how long Transact waits for its tables.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithOpenTimeout bounds how long Open waits for the database file lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.openTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFieldFilter encrypts the listed top-level fields of each table at rest.
func WithFieldFilter(factory FieldFilterFactory, fields map[string][]string) Option {
	return func(o *options) {
		o.filterFactory = factory
		o.encryptedFields = fields
	}
}

// Store is the embedded datastore.
type Store struct {
	db        *bolt.DB
	registry  *Registry
	locks     *tableLocks
	opts      options
	filter    FieldFilter
	encrypted map[string]map[string]bool

	listenersMu sync.RWMutex
	listeners   map[uint64]CommitListener
	nextID      uint64

	commitSeq atomic.Uint64
	logger    *slog.Logger
}

// Open opens (creating if absent) the database at path and upgrades it to the last
// migration's version. Any failure during the upgrade leaves the prior version intact
// and is reported as *apperrors.SchemaUpgradeError.
func Open(path string, migrations []Migration, opts ...Option) (*Store, error) {
	o := options{
		lockTimeout: 5 * time.Second,
		openTimeout: 2 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	reg, err := BuildRegistry(migrations)
	if err != nil {
		return nil, &apperrors.SchemaUpgradeError{Err: err}
	}

	encrypted := make(map[string]map[string]bool)
	for table, fields := range o.encryptedFields {
		if !reg.HasTable(table) {
			return nil, fmt.Errorf("%w: encrypted fields declared on unknown table %q", apperrors.ErrValidation, table)
		}
		encrypted[table] = make(map[string]bool, len(fields))
		for _, f := range fields {
			if reg.IsIndexed(table, f) || f == "id" {
				return nil, fmt.Errorf("%w: field %s.%s is indexed or a key and cannot be encrypted", apperrors.ErrValidation, table, f)
			}
			encrypted[table][f] = true
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: o.openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	s := &Store{
		db:        db,
		registry:  reg,
		locks:     newTableLocks(),
		opts:      o,
		encrypted: encrypted,
		listeners: make(map[uint64]CommitListener),
		logger:    o.logger,
	}

	if o.filterFactory != nil && len(encrypted) > 0 {
		salt, err := s.ensureSalt()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		filter, err := o.filterFactory(salt)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialise field filter: %w", err)
		}
		s.filter = filter
	}

	if err := s.migrate(migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Registry exposes the schema in force.
func (s *Store) Registry() *Registry { return s.registry }

// SchemaVersion reads the persisted schema version.
func (s *Store) SchemaVersion() (uint, error) {
	var v uint
	err := s.db.View(func(btx *bolt.Tx) error {
		var err error
		v, err = readVersion(btx)
		return err
	})
	return v, err
}

func readVersion(btx *bolt.Tx) (uint, error) {
	meta := btx.Bucket(metaBucket)
	if meta == nil {
		return 0, nil
	}
	raw := meta.Get(keySchemaVersion)
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("corrupt schema version %q: %w", raw, err)
	}
	return uint(v), nil
}

func (s *Store) ensureSalt() ([]byte, error) {
	var salt []byte
	err := s.db.Update(func(btx *bolt.Tx) error {
		meta, err := btx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if existing := meta.Get(keyKDFSalt); existing != nil {
			salt = append([]byte(nil), existing...)
			return nil
		}
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return err
		}
		return meta.Put(keyKDFSalt, salt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load key derivation salt: %w", err)
	}
	return salt, nil
}

func (s *Store) migrate(migrations []Migration) error {
	current, err := s.SchemaVersion()
	if err != nil {
		return &apperrors.SchemaUpgradeError{ToVersion: s.registry.Version(), Err: err}
	}
	target := s.registry.Version()
	if current == target {
		s.logger.Debug("Store schema up to date", slog.Uint64("version", uint64(current)))
		return nil
	}
	if current > target {
		return &apperrors.SchemaUpgradeError{
			FromVersion: current,
			ToVersion:   target,
			Err:         errors.New("stored schema is newer than this build"),
		}
	}

	s.logger.Info("Upgrading store schema", slog.Uint64("from", uint64(current)), slog.Uint64("to", uint64(target)))
	err = s.db.Update(func(btx *bolt.Tx) error {
		meta, err := btx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return &apperrors.SchemaUpgradeError{FromVersion: current, ToVersion: target, Err: err}
		}
		for i, m := range migrations {
			if m.Version <= current {
				continue
			}
			if err := s.applyMigration(btx, migrations[:i+1], m); err != nil {
				return &apperrors.SchemaUpgradeError{FromVersion: current, ToVersion: target, Step: m.Version, Err: err}
			}
			if err := meta.Put(keySchemaVersion, []byte(strconv.FormatUint(uint64(m.Version), 10))); err != nil {
				return &apperrors.SchemaUpgradeError{FromVersion: current, ToVersion: target, Step: m.Version, Err: err}
			}
			s.logger.Info("Applied store migration", slog.Uint64("version", uint64(m.Version)), slog.String("description", m.Description))
		}
		return nil
	})
	if err != nil {
		var upErr *apperrors.SchemaUpgradeError
		if errors.As(err, &upErr) {
			return upErr
		}
		return &apperrors.SchemaUpgradeError{FromVersion: current, ToVersion: target, Err: err}
	}
	return nil
}

func (s *Store) applyMigration(btx *bolt.Tx, upTo []Migration, m Migration) error {
	stepReg, err := BuildRegistry(upTo)
	if err != nil {
		return err
	}
	for _, t := range m.Tables {
		if _, err := btx.CreateBucketIfNotExists([]byte(t.Name)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		for _, f := range t.Indexes {
			if err := s.buildIndex(btx, t.Name, f); err != nil {
				return err
			}
		}
	}
	for table, fields := range m.AddIndexes {
		for _, f := range fields {
			if err := s.buildIndex(btx, table, f); err != nil {
				return err
			}
		}
	}
	if m.Up != nil {
		tx := s.newTx(btx, stepReg, nil, true)
		if err := m.Up(tx); err != nil {
			return err
		}
	}
	return nil
}

// buildIndex (re)creates an index bucket from the rows already in the table.
func (s *Store) buildIndex(btx *bolt.Tx, table, field string) error {
	name := indexBucketName(table, field)
	if btx.Bucket(name) != nil {
		if err := btx.DeleteBucket(name); err != nil {
			return fmt.Errorf("reset index %s.%s: %w", table, field, err)
		}
	}
	idx, err := btx.CreateBucket(name)
	if err != nil {
		return fmt.Errorf("create index %s.%s: %w", table, field, err)
	}
	data := btx.Bucket([]byte(table))
	if data == nil {
		return nil
	}
	return data.ForEach(func(k, v []byte) error {
		plain, err := s.decode(table, v)
		if err != nil {
			return err
		}
		fields, err := parseFields(plain)
		if err != nil {
			return err
		}
		if val, ok := indexValue(fields[field]); ok {
			return idx.Put(indexKey(val, string(k)), []byte{})
		}
		return nil
	})
}

type txCtxKey struct{}

func txFromContext(ctx context.Context, s *Store) *Tx {
	tx, ok := ctx.Value(txCtxKey{}).(*Tx)
	if !ok || tx.store != s {
		return nil
	}
	return tx
}

// Transact runs fn inside one atomic read-write transaction restricted to tables.
// A nested call whose ctx carries an active transaction of this store reuses it.
func (s *Store) Transact(ctx context.Context, tables []string, fn func(ctx context.Context, tx *Tx) error) error {
	if outer := txFromContext(ctx, s); outer != nil {
		if !outer.writable {
			return fmt.Errorf("%w: write transaction nested in a read-only view", apperrors.ErrTableNotInScope)
		}
		for _, t := range tables {
			if !outer.inScope(t) {
				return fmt.Errorf("%w: nested transaction requested %q", apperrors.ErrTableNotInScope, t)
			}
		}
		return fn(ctx, outer)
	}

	if len(tables) == 0 {
		return fmt.Errorf("%w: transaction declares no tables", apperrors.ErrValidation)
	}
	for _, t := range tables {
		if !s.registry.HasTable(t) {
			return fmt.Errorf("%w: unknown table %q", apperrors.ErrValidation, t)
		}
	}

	release, err := s.locks.acquire(ctx, tables, s.opts.lockTimeout)
	if err != nil {
		return err
	}

	var tx *Tx
	err = s.db.Update(func(btx *bolt.Tx) error {
		tx = s.newTx(btx, s.registry, tables, true)
		return fn(context.WithValue(ctx, txCtxKey{}, tx), tx)
	})
	release()
	if err != nil {
		return err
	}

	if written := tx.WrittenTables(); len(written) > 0 {
		s.notify(CommitEvent{Seq: s.commitSeq.Add(1), Tables: written})
	}
	return nil
}

// View runs fn against a consistent read-only snapshot of every table. Inside a
// Transact body it reads through the active transaction instead.
func (s *Store) View(ctx context.Context, fn func(r Reader) error) error {
	if outer := txFromContext(ctx, s); outer != nil {
		return fn(outer)
	}
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(s.newTx(btx, s.registry, nil, false))
	})
}

// OnCommit registers a listener and returns its removal func.
func (s *Store) OnCommit(l CommitListener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// LastCommitSeq is the sequence number of the latest notified commit.
func (s *Store) LastCommitSeq() uint64 { return s.commitSeq.Load() }

func (s *Store) notify(ev CommitEvent) {
	s.listenersMu.RLock()
	ls := make([]CommitListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.RUnlock()

	for _, l := range ls {
		l(ev)
	}
}
