package storage

import "testing"

func TestSourceKey(t *testing.T) {
	if got := SourceKey("job-1"); got != "uploads/job-1/source" {
		t.Fatalf("unexpected source key %q", got)
	}
	if got := SourceKey("../../etc"); got != "uploads/______etc/source" {
		t.Fatalf("expected traversal to be sanitized, got %q", got)
	}
}

func TestOutputKey(t *testing.T) {
	if got := OutputKey("", "job-1", "narrow 50%", "png"); got != "outputs/job-1/narrow_50_.png" {
		t.Fatalf("unexpected output key %q", got)
	}
	if got := OutputKey("/carved/", "job-1", "seams", "json"); got != "carved/job-1/seams.json" {
		t.Fatalf("unexpected prefixed output key %q", got)
	}
}

func TestSanitizeTokenEmpty(t *testing.T) {
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
