package ops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCrashes(t *testing.T) {
	cfg := testConfig(t)

	out, err := Crashes(cfg)
	if err != nil {
		t.Fatalf("Crashes failed: %v", err)
	}
	if len(out.Items) != 0 {
		t.Errorf("Items = %v, want empty before any crash", out.Items)
	}

	for _, name := range []string{"crash_20250102_000000", "crash_20250101_000000"} {
		if err := os.MkdirAll(filepath.Join(cfg.CrashPath(), name), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	out, err = Crashes(cfg)
	if err != nil {
		t.Fatalf("Crashes failed: %v", err)
	}
	if len(out.Items) != 2 || out.Items[0].Name != "crash_20250101_000000" {
		t.Errorf("Items = %+v", out.Items)
	}
	if out.CrashRoot != cfg.CrashPath() {
		t.Errorf("CrashRoot = %q", out.CrashRoot)
	}
}
