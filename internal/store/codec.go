package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
)

const (
	sealedPrefix = "enc:v1:"
	sortableTime = "2006-01-02T15:04:05.000000000Z"
)

// parseFields splits a record into its top-level fields.
func parseFields(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: record is not a JSON object: %v", apperrors.ErrValidation, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: record is null", apperrors.ErrValidation)
	}
	return fields, nil
}

// indexValue normalises a field value so that byte order matches value order for
// strings and timestamps. Missing and null values are not indexed.
func indexValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC().Format(sortableTime), true
		}
		return s, true
	}
	return string(raw), true
}

// IndexValueOf normalises a Go value the same way stored fields are normalised.
func IndexValueOf(v any) (string, error) {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC().Format(sortableTime), nil
		}
		return s, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: unindexable value: %v", apperrors.ErrValidation, err)
	}
	val, ok := indexValue(raw)
	if !ok {
		return "", fmt.Errorf("%w: null values are not indexed", apperrors.ErrValidation)
	}
	return val, nil
}

func indexKey(value, key string) []byte {
	b := make([]byte, 0, len(value)+1+len(key))
	b = append(b, value...)
	b = append(b, 0)
	b = append(b, key...)
	return b
}

func keyFromIndexKey(k []byte) string {
	i := bytes.LastIndexByte(k, 0)
	if i < 0 {
		return string(k)
	}
	return string(k[i+1:])
}

// encode applies the field filter to plaintext record bytes.
func (s *Store) encode(table string, plain []byte) ([]byte, error) {
	fields := s.encrypted[table]
	if s.filter == nil || len(fields) == 0 {
		return plain, nil
	}
	m, err := parseFields(plain)
	if err != nil {
		return nil, err
	}
	for name := range fields {
		v, ok := m[name]
		if !ok || string(v) == "null" {
			continue
		}
		sealed, err := s.filter.Seal(table, name, v)
		if err != nil {
			return nil, fmt.Errorf("failed to seal %s.%s: %w", table, name, err)
		}
		enc, err := json.Marshal(sealedPrefix + base64.StdEncoding.EncodeToString(sealed))
		if err != nil {
			return nil, err
		}
		m[name] = enc
	}
	return json.Marshal(m)
}

// decode reverses encode. The returned slice never aliases bbolt memory.
func (s *Store) decode(table string, stored []byte) ([]byte, error) {
	fields := s.encrypted[table]
	if s.filter == nil || len(fields) == 0 {
		return append([]byte(nil), stored...), nil
	}
	m, err := parseFields(stored)
	if err != nil {
		return nil, err
	}
	for name := range fields {
		v, ok := m[name]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(v, &text); err != nil || !strings.HasPrefix(text, sealedPrefix) {
			continue
		}
		sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, sealedPrefix))
		if err != nil {
			return nil, fmt.Errorf("corrupt sealed field %s.%s: %w", table, name, err)
		}
		plain, err := s.filter.Open(table, name, sealed)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s.%s: %w", table, name, err)
		}
		m[name] = plain
	}
	return json.Marshal(m)
}
