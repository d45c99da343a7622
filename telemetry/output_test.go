package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type yamlStub struct{ body string }

func (y yamlStub) WriteYAML(path string) error {
	return os.WriteFile(path, []byte(y.body), 0644)
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager methods are no-ops.
	if err := om.WriteFrame(FrameStats{}); err != nil {
		t.Errorf("WriteFrame on nil: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := uint64(1); i <= 3; i++ {
		if err := om.WriteFrame(FrameStats{Frame: i, DensityTotal: float64(i)}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 3); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteConfig(yamlStub{body: "fluid: {}\n"}); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("frames.csv has %d lines, want 4:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "frame,elapsed,dt") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "frame,") != 1 {
		t.Errorf("header repeated:\n%s", data)
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(perf), "pressure_pct") {
		t.Errorf("perf.csv missing pass columns:\n%s", perf)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	if om.Dir() != dir {
		t.Errorf("Dir = %q, want %q", om.Dir(), dir)
	}
}
