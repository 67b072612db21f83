package live

import (
	"encoding/json"
	"sync"

	"github.com/SscSPs/mma_local/internal/store"
)

// trackingReader records every table a query reads.
type trackingReader struct {
	inner store.Reader

	mu      sync.Mutex
	touched map[string]bool
}

var _ store.Reader = (*trackingReader)(nil)

func newTrackingReader(inner store.Reader) *trackingReader {
	return &trackingReader{inner: inner, touched: make(map[string]bool)}
}

func (r *trackingReader) touch(table string) {
	r.mu.Lock()
	r.touched[table] = true
	r.mu.Unlock()
}

func (r *trackingReader) tables() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.touched))
	for t := range r.touched {
		out[t] = true
	}
	return out
}

func (r *trackingReader) Get(table, key string) (json.RawMessage, error) {
	r.touch(table)
	return r.inner.Get(table, key)
}

func (r *trackingReader) GetAll(table string) ([]store.Row, error) {
	r.touch(table)
	return r.inner.GetAll(table)
}

func (r *trackingReader) Query(table, field string, value any) ([]store.Row, error) {
	r.touch(table)
	return r.inner.Query(table, field, value)
}

func (r *trackingReader) Scan(table string, opts store.ScanOptions) ([]store.Row, error) {
	r.touch(table)
	return r.inner.Scan(table, opts)
}

func (r *trackingReader) Count(table string) (int, error) {
	r.touch(table)
	return r.inner.Count(table)
}
