package jobs

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// JobDir returns the per-job working directory rooted at base. It returns ""
// when base is empty or id is not a job identifier, so callers never build a
// path from untrusted input.
func JobDir(base, id string) string {
	base = strings.TrimSpace(base)
	if base == "" || !IsID(id) {
		return ""
	}
	return filepath.Join(base, id)
}

// IsID reports whether value has the shape of a job identifier.
func IsID(value string) bool {
	return uuid.Validate(value) == nil && len(value) == 36
}
