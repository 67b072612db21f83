// Package backup stores snapshot blobs on the local disk or in Google Cloud Storage.
package backup

import (
	"fmt"
	"path"
	"strings"

	"github.com/SscSPs/mma_local/internal/apperrors"
)

// validName rejects names that would escape the sink's directory or prefix.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Base(name) != name {
		return fmt.Errorf("%w: invalid backup name %q", apperrors.ErrValidation, name)
	}
	return nil
}
