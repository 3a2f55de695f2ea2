package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/oncoresp/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "derivation.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDerivation_Valid(t *testing.T) {
	path := writeConfig(t, "baseline_method: FIRST\nnadir_method: EXCLUDE_BASELINE\nconfirm_window_hi_days: 56\n")

	d, err := LoadDerivation(path)
	if err != nil {
		t.Fatalf("LoadDerivation: %v", err)
	}
	if d.BaselineMethod != model.BaselineFirst {
		t.Errorf("BaselineMethod: got %q", d.BaselineMethod)
	}
	if d.NadirMethod != model.NadirExcludeBaseline {
		t.Errorf("NadirMethod: got %q", d.NadirMethod)
	}
	if d.ConfirmWindowHiDays != 56 {
		t.Errorf("ConfirmWindowHiDays: got %d, want 56", d.ConfirmWindowHiDays)
	}
	// Unset keys keep their defaults.
	if d.PDAbsoluteThresholdMM != 5 || d.PDRelativeThreshold != 0.20 {
		t.Errorf("PD thresholds not defaulted: %v / %v", d.PDAbsoluteThresholdMM, d.PDRelativeThreshold)
	}
	if d.IMWG.ConfirmMinDays != 28 {
		t.Errorf("IMWG.ConfirmMinDays: got %d", d.IMWG.ConfirmMinDays)
	}
}

func TestLoadDerivation_UnknownMethod(t *testing.T) {
	path := writeConfig(t, "baseline_method: LOWEST\n")
	if _, err := LoadDerivation(path); err == nil {
		t.Fatal("expected error for unknown baseline method")
	}
}

func TestLoadDerivation_InvertedWindow(t *testing.T) {
	path := writeConfig(t, "confirm_window_lo_days: 90\nconfirm_window_hi_days: 30\n")
	if _, err := LoadDerivation(path); err == nil {
		t.Fatal("expected error for inverted confirmation window")
	}
}

func TestLoadDerivation_NonPositiveThreshold(t *testing.T) {
	path := writeConfig(t, "pd_absolute_threshold_mm: 0\n")
	if _, err := LoadDerivation(path); err == nil {
		t.Fatal("expected error for zero absolute threshold")
	}
}

func TestLoadDerivation_MissingFile(t *testing.T) {
	if _, err := LoadDerivation("/nonexistent/derivation.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultDerivation_Valid(t *testing.T) {
	d := DefaultDerivation()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if d.ConfirmWindowLoDays != 28 || d.ConfirmWindowHiDays != 84 || d.SDMinDurationDays != 42 {
		t.Errorf("unexpected default windows: %+v", d)
	}
}

func TestValidateWithDSN_RequiresSink(t *testing.T) {
	path := writeConfig(t, "")
	c := Config{AssessmentsPath: path, SubjectsPath: path, StudyID: "ONC-001", Derivation: DefaultDerivation()}
	if err := c.ValidateWithDSN(); err == nil {
		t.Fatal("expected error when neither DSN nor out dir is set")
	}
	c.OutDir = t.TempDir()
	if err := c.ValidateWithDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StudyID(t *testing.T) {
	path := writeConfig(t, "")
	c := Config{AssessmentsPath: path, Derivation: DefaultDerivation()}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty study id")
	}
	c.StudyID = "ONC-001"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDerivation_WorkersNotSerialized(t *testing.T) {
	a, b := DefaultDerivation(), DefaultDerivation()
	a.Workers, b.Workers = 1, 8
	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(ja) != string(jb) {
		t.Errorf("worker count changed the serialized config:\n%s\n%s", ja, jb)
	}
}
