package queries

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/mma_local/internal/store"
)

func decode[T any](row store.Row) (T, error) {
	var v T
	if err := json.Unmarshal(row.Value, &v); err != nil {
		return v, fmt.Errorf("failed to decode row %s: %w", row.Key, err)
	}
	return v, nil
}
