package store

import (
	"encoding/json"
	"fmt"
)

func decodeRow[T any](table, key string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s/%s: %w", table, key, err)
	}
	return v, nil
}

func decodeRows[T any](table string, rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := decodeRow[T](table, r.Key, r.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetAs reads one record into T. found is false when the key is absent.
func GetAs[T any](r Reader, table, key string) (v T, found bool, err error) {
	raw, err := r.Get(table, key)
	if err != nil || raw == nil {
		return v, false, err
	}
	v, err = decodeRow[T](table, key, raw)
	return v, err == nil, err
}

// GetAllAs reads a whole table in key order.
func GetAllAs[T any](r Reader, table string) ([]T, error) {
	rows, err := r.GetAll(table)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](table, rows)
}

// QueryAs reads every record whose indexed field equals value.
func QueryAs[T any](r Reader, table, field string, value any) ([]T, error) {
	rows, err := r.Query(table, field, value)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](table, rows)
}

// ScanAs reads one page of an ordered scan and returns the cursor of its last row.
func ScanAs[T any](r Reader, table string, opts ScanOptions) ([]T, string, error) {
	rows, err := r.Scan(table, opts)
	if err != nil {
		return nil, "", err
	}
	out, err := decodeRows[T](table, rows)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if opts.Limit > 0 && len(rows) == opts.Limit {
		next = rows[len(rows)-1].Cursor
	}
	return out, next, nil
}
