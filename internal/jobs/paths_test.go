package jobs

import (
	"path/filepath"
	"testing"
)

func TestJobDir(t *testing.T) {
	id := NewID()
	if got := JobDir("/work", id); got != filepath.Join("/work", id) {
		t.Fatalf("JobDir = %q", got)
	}
	for _, bad := range []string{"", "..", "../etc", "not-a-uuid", "{" + id + "}"} {
		if got := JobDir("/work", bad); got != "" {
			t.Errorf("JobDir(%q) = %q, want empty", bad, got)
		}
	}
	if got := JobDir(" ", id); got != "" {
		t.Fatalf("JobDir with empty base = %q", got)
	}
}
