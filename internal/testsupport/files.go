package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteArtifact writes content to dir/name, creating dir as needed, and
// returns the full path.
func WriteArtifact(t testing.TB, dir, name string, content []byte) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
