package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/SscSPs/mma_local/internal/apperrors"
	bolt "go.etcd.io/bbolt"
)

// Record is anything stored under its own key.
type Record interface {
	RecordKey() string
}

// Row is one stored record in its JSON form.
type Row struct {
	Key   string
	Value json.RawMessage
	// Cursor resumes an ordered Scan after this row.
	Cursor string
}

// ScanOptions controls an ordered scan. An empty Index scans in key order.
type ScanOptions struct {
	Index   string
	Reverse bool
	After   string
	Limit   int
}

// Reader is the read surface shared by transactions and views.
type Reader interface {
	Get(table, key string) (json.RawMessage, error)
	GetAll(table string) ([]Row, error)
	Query(table, field string, value any) ([]Row, error)
	Scan(table string, opts ScanOptions) ([]Row, error)
	Count(table string) (int, error)
}

// WriteOp is the kind of a logged write.
type WriteOp string

const (
	OpPut    WriteOp = "put"
	OpDelete WriteOp = "delete"
)

// WriteRef identifies one written key.
type WriteRef struct {
	Table string
	Key   string
	Op    WriteOp
}

// Tx is a transaction handle. Read-only handles come from View.
type Tx struct {
	store    *Store
	btx      *bolt.Tx
	reg      *Registry
	scope    map[string]bool
	writable bool

	writes        []WriteRef
	writeIndex    map[string]int
	tablesWritten map[string]bool
}

var errReadOnly = errors.New("write attempted in a read-only view")

var _ Reader = (*Tx)(nil)

func (s *Store) newTx(btx *bolt.Tx, reg *Registry, tables []string, writable bool) *Tx {
	var scope map[string]bool
	if tables != nil {
		scope = make(map[string]bool, len(tables))
		for _, t := range tables {
			scope[t] = true
		}
	}
	return &Tx{
		store:         s,
		btx:           btx,
		reg:           reg,
		scope:         scope,
		writable:      writable,
		writeIndex:    make(map[string]int),
		tablesWritten: make(map[string]bool),
	}
}

func (tx *Tx) inScope(table string) bool {
	return tx.scope == nil || tx.scope[table]
}

func (tx *Tx) bucket(table string) (*bolt.Bucket, error) {
	if !tx.inScope(table) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrTableNotInScope, table)
	}
	if !tx.reg.HasTable(table) {
		return nil, fmt.Errorf("%w: unknown table %q", apperrors.ErrValidation, table)
	}
	b := tx.btx.Bucket([]byte(table))
	if b == nil {
		return nil, fmt.Errorf("table %q has not been created", table)
	}
	return b, nil
}

func (tx *Tx) writableBucket(table string) (*bolt.Bucket, error) {
	if !tx.writable {
		return nil, errReadOnly
	}
	return tx.bucket(table)
}

// Get returns the record stored under key, or nil when absent.
func (tx *Tx) Get(table, key string) (json.RawMessage, error) {
	b, err := tx.bucket(table)
	if err != nil {
		return nil, err
	}
	v := b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	return tx.store.decode(table, v)
}

// GetAll returns every record in key order.
func (tx *Tx) GetAll(table string) ([]Row, error) {
	return tx.Scan(table, ScanOptions{})
}

// Query returns the records whose indexed field equals value.
func (tx *Tx) Query(table, field string, value any) ([]Row, error) {
	b, err := tx.bucket(table)
	if err != nil {
		return nil, err
	}
	if !tx.reg.IsIndexed(table, field) {
		return nil, &apperrors.UnindexedFieldError{Table: table, Field: field}
	}
	val, err := IndexValueOf(value)
	if err != nil {
		return nil, err
	}
	idx := tx.btx.Bucket(indexBucketName(table, field))
	if idx == nil {
		return nil, &apperrors.UnindexedFieldError{Table: table, Field: field}
	}

	prefix := append([]byte(val), 0)
	var rows []Row
	c := idx.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		key := keyFromIndexKey(k)
		row, err := tx.row(b, table, key, string(k))
		if err != nil {
			return nil, err
		}
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

// Scan walks a table in key order, or in the order of an indexed field.
func (tx *Tx) Scan(table string, opts ScanOptions) ([]Row, error) {
	b, err := tx.bucket(table)
	if err != nil {
		return nil, err
	}

	src := b
	if opts.Index != "" {
		if !tx.reg.IsIndexed(table, opts.Index) {
			return nil, &apperrors.UnindexedFieldError{Table: table, Field: opts.Index}
		}
		src = tx.btx.Bucket(indexBucketName(table, opts.Index))
		if src == nil {
			return nil, &apperrors.UnindexedFieldError{Table: table, Field: opts.Index}
		}
	}

	c := src.Cursor()
	var k []byte
	switch {
	case opts.After != "" && opts.Reverse:
		k, _ = c.Seek([]byte(opts.After))
		if k == nil {
			k, _ = c.Last()
		} else {
			k, _ = c.Prev()
		}
	case opts.After != "":
		k, _ = c.Seek([]byte(opts.After))
		if k != nil && string(k) == opts.After {
			k, _ = c.Next()
		}
	case opts.Reverse:
		k, _ = c.Last()
	default:
		k, _ = c.First()
	}

	var rows []Row
	for ; k != nil; k = step(c, opts.Reverse) {
		key := string(k)
		if opts.Index != "" {
			key = keyFromIndexKey(k)
		}
		row, err := tx.row(b, table, key, string(k))
		if err != nil {
			return nil, err
		}
		if row == nil {
			continue
		}
		rows = append(rows, *row)
		if opts.Limit > 0 && len(rows) >= opts.Limit {
			break
		}
	}
	return rows, nil
}

func step(c *bolt.Cursor, reverse bool) []byte {
	var k []byte
	if reverse {
		k, _ = c.Prev()
	} else {
		k, _ = c.Next()
	}
	return k
}

func (tx *Tx) row(b *bolt.Bucket, table, key, cursor string) (*Row, error) {
	v := b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	plain, err := tx.store.decode(table, v)
	if err != nil {
		return nil, err
	}
	return &Row{Key: key, Value: plain, Cursor: cursor}, nil
}

// Count returns the number of records in table.
func (tx *Tx) Count(table string) (int, error) {
	b, err := tx.bucket(table)
	if err != nil {
		return 0, err
	}
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n, nil
}

// Put inserts or fully replaces a record under its own key.
func (tx *Tx) Put(table string, rec Record) (string, error) {
	key := rec.RecordKey()
	if key == "" {
		return "", fmt.Errorf("%w: record key is empty", apperrors.ErrValidation)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s record %s: %w", table, key, err)
	}
	return key, tx.PutRaw(table, key, raw)
}

// PutRaw stores a JSON object under key, maintaining every index of the table.
func (tx *Tx) PutRaw(table, key string, raw json.RawMessage) error {
	b, err := tx.writableBucket(table)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: record key is empty", apperrors.ErrValidation)
	}
	newFields, err := parseFields(raw)
	if err != nil {
		return err
	}

	var oldFields map[string]json.RawMessage
	if old := b.Get([]byte(key)); old != nil {
		plain, err := tx.store.decode(table, old)
		if err != nil {
			return err
		}
		if oldFields, err = parseFields(plain); err != nil {
			return err
		}
	}
	if err := tx.reindex(table, key, oldFields, newFields); err != nil {
		return err
	}

	stored, err := tx.store.encode(table, raw)
	if err != nil {
		return err
	}
	if err := b.Put([]byte(key), stored); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", table, key, err)
	}
	tx.logWrite(table, key, OpPut)
	return nil
}

// Patch merges top-level fields into an existing record.
func (tx *Tx) Patch(table, key string, fields map[string]any) error {
	current, err := tx.Get(table, key)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, table, key)
	}
	m, err := parseFields(current)
	if err != nil {
		return err
	}
	for name, v := range fields {
		enc, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode field %s: %w", name, err)
		}
		m[name] = enc
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return tx.PutRaw(table, key, merged)
}

// Delete removes a record. Deleting a missing key is a no-op.
func (tx *Tx) Delete(table, key string) error {
	b, err := tx.writableBucket(table)
	if err != nil {
		return err
	}
	old := b.Get([]byte(key))
	if old == nil {
		return nil
	}
	plain, err := tx.store.decode(table, old)
	if err != nil {
		return err
	}
	oldFields, err := parseFields(plain)
	if err != nil {
		return err
	}
	if err := tx.reindex(table, key, oldFields, nil); err != nil {
		return err
	}
	if err := b.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, key, err)
	}
	tx.logWrite(table, key, OpDelete)
	return nil
}

// BulkPut stores many records of the same table.
func (tx *Tx) BulkPut(table string, recs []Record) error {
	for _, rec := range recs {
		if _, err := tx.Put(table, rec); err != nil {
			return err
		}
	}
	return nil
}

// BulkPutRaw stores many JSON rows of the same table.
func (tx *Tx) BulkPutRaw(table string, rows []Row) error {
	for _, r := range rows {
		if err := tx.PutRaw(table, r.Key, r.Value); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties a table and its indexes. Cleared keys are not added to the write log.
func (tx *Tx) Clear(table string) error {
	if _, err := tx.writableBucket(table); err != nil {
		return err
	}
	reset := func(name []byte) error {
		if err := tx.btx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.btx.CreateBucket(name)
		return err
	}
	if err := reset([]byte(table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, f := range tx.reg.Indexes(table) {
		if err := reset(indexBucketName(table, f)); err != nil {
			return fmt.Errorf("failed to clear index %s.%s: %w", table, f, err)
		}
	}
	tx.tablesWritten[table] = true
	return nil
}

// NextSequence returns the table's next monotonically increasing sequence number.
func (tx *Tx) NextSequence(table string) (uint64, error) {
	b, err := tx.writableBucket(table)
	if err != nil {
		return 0, err
	}
	return b.NextSequence()
}

// Writes returns the keys written so far, one entry per key carrying its last op,
// in first-write order.
func (tx *Tx) Writes() []WriteRef {
	out := make([]WriteRef, len(tx.writes))
	copy(out, tx.writes)
	return out
}

// WrittenTables returns the tables touched by writes, sorted.
func (tx *Tx) WrittenTables() []string {
	out := make([]string, 0, len(tx.tablesWritten))
	for t := range tx.tablesWritten {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (tx *Tx) logWrite(table, key string, op WriteOp) {
	tx.tablesWritten[table] = true
	id := table + "\x00" + key
	if i, ok := tx.writeIndex[id]; ok {
		tx.writes[i].Op = op
		return
	}
	tx.writeIndex[id] = len(tx.writes)
	tx.writes = append(tx.writes, WriteRef{Table: table, Key: key, Op: op})
}

func (tx *Tx) reindex(table, key string, oldFields, newFields map[string]json.RawMessage) error {
	for _, field := range tx.reg.Indexes(table) {
		idx := tx.btx.Bucket(indexBucketName(table, field))
		if idx == nil {
			return &apperrors.UnindexedFieldError{Table: table, Field: field}
		}
		oldVal, hadOld := indexValue(oldFields[field])
		newVal, hasNew := indexValue(newFields[field])
		if hadOld && hasNew && oldVal == newVal {
			continue
		}
		if hadOld {
			if err := idx.Delete(indexKey(oldVal, key)); err != nil {
				return err
			}
		}
		if hasNew {
			if err := idx.Put(indexKey(newVal, key), []byte{}); err != nil {
				return err
			}
		}
	}
	return nil
}
