package fieldcrypt_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/platform/fieldcrypt"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var salt = []byte("0123456789abcdef")

func TestCipher_RoundTrip(t *testing.T) {
	c, err := fieldcrypt.New("correct horse", salt)
	require.NoError(t, err)

	sealed, err := c.Seal("accounts", "name", []byte(`"Savings"`))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "Savings")

	plain, err := c.Open("accounts", "name", sealed)
	require.NoError(t, err)
	assert.Equal(t, `"Savings"`, string(plain))

	_, err = c.Open("accounts", "currency", sealed)
	assert.Error(t, err, "sealed value must be bound to its field")

	other, err := fieldcrypt.New("wrong", salt)
	require.NoError(t, err)
	_, err = other.Open("accounts", "name", sealed)
	assert.Error(t, err)
}

func TestCipher_EmptyPassphrase(t *testing.T) {
	_, err := fieldcrypt.New("", salt)
	assert.ErrorIs(t, err, fieldcrypt.ErrEmptyPassphrase)
}

type note struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Body string `json:"body"`
}

func (n note) RecordKey() string { return n.ID }

func TestStore_EncryptsFieldsAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "enc.db")
	migrations := []store.Migration{{Version: 1, Tables: []store.TableDef{{Name: "notes", Indexes: []string{"kind"}}}}}
	fields := map[string][]string{"notes": {"body"}}

	s, err := store.Open(path, migrations, store.WithFieldFilter(fieldcrypt.Factory("pin-1234"), fields))
	require.NoError(t, err)

	err = s.Transact(ctx, []string{"notes"}, func(ctx context.Context, tx *store.Tx) error {
		_, err := tx.Put("notes", note{ID: "n1", Kind: "memo", Body: "very secret body"})
		return err
	})
	require.NoError(t, err)

	err = s.View(ctx, func(r store.Reader) error {
		got, found, err := store.GetAs[note](r, "notes", "n1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "very secret body", got.Body)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "very secret body"))

	s, err = store.Open(path, migrations, store.WithFieldFilter(fieldcrypt.Factory("pin-1234"), fields))
	require.NoError(t, err)
	defer s.Close()
	err = s.View(ctx, func(r store.Reader) error {
		got, _, err := store.GetAs[note](r, "notes", "n1")
		require.NoError(t, err)
		assert.Equal(t, "very secret body", got.Body)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_RejectsEncryptedIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enc.db")
	migrations := []store.Migration{{Version: 1, Tables: []store.TableDef{{Name: "notes", Indexes: []string{"kind"}}}}}
	_, err := store.Open(path, migrations, store.WithFieldFilter(fieldcrypt.Factory("pin"), map[string][]string{"notes": {"kind"}}))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
