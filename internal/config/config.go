package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/gyeh/oncoresp/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a respderive run.
type Config struct {
	DSN             string
	AssessmentsPath string
	SubjectsPath    string
	ConfigPath      string
	OutDir          string
	StudyID         string
	LogFormat       string // "text" or "json"
	LogLevel        string
	Force           bool
	Derivation      Derivation
}

// Derivation is the read-only configuration shared by every subject pipeline
// during a run.
type Derivation struct {
	BaselineMethod model.BaselineMethod `yaml:"baseline_method"`
	NadirMethod    model.NadirMethod    `yaml:"nadir_method"`

	PDRelativeThreshold   float64 `yaml:"pd_relative_threshold"`
	PDAbsoluteThresholdMM float64 `yaml:"pd_absolute_threshold_mm"`
	PRRelativeThreshold   float64 `yaml:"pr_relative_threshold"`
	Enaworu25mmRule       bool    `yaml:"enaworu_25mm_rule_enabled"`
	Enaworu25mmCutoffMM   float64 `yaml:"enaworu_25mm_cutoff_mm"`

	ConfirmWindowLoDays int `yaml:"confirm_window_lo_days"`
	ConfirmWindowHiDays int `yaml:"confirm_window_hi_days"`
	SDMinDurationDays   int `yaml:"sd_min_duration_days"`

	IRECISTConfirmLoDays int `yaml:"irecist_confirm_lo_days"`
	IRECISTConfirmHiDays int `yaml:"irecist_confirm_hi_days"`

	IMWG IMWG `yaml:"imwg"`

	EarlyCensorDays int `yaml:"early_censor_days"`
	LateCensorDays  int `yaml:"late_censor_days"`

	// Workers bounds parallelism only; it is excluded from the run identity.
	Workers int `yaml:"workers" json:"-"`
}

// IMWG holds the hematologic response thresholds. Concentrations are mg/L.
type IMWG struct {
	PDRelativeIncrease float64 `yaml:"pd_relative_increase"`
	PDAbsoluteIncrease float64 `yaml:"pd_absolute_increase"`
	CRMaxDFLC          float64 `yaml:"cr_max_dflc"`
	VGPRMaxDFLC        float64 `yaml:"vgpr_max_dflc"`
	VGPRReduction      float64 `yaml:"vgpr_reduction"`
	PRReduction        float64 `yaml:"pr_reduction"`
	PRAbsoluteDecrease float64 `yaml:"pr_absolute_decrease"`
	MRReduction        float64 `yaml:"mr_reduction"`
	RatioLow           float64 `yaml:"flc_ratio_low"`
	RatioHigh          float64 `yaml:"flc_ratio_high"`
	ConfirmMinDays     int     `yaml:"confirm_min_days"`
}

// DefaultDerivation returns the standard RECIST 1.1 / IMWG configuration.
func DefaultDerivation() Derivation {
	return Derivation{
		BaselineMethod:        model.BaselinePretreat,
		NadirMethod:           model.NadirStandard,
		PDRelativeThreshold:   0.20,
		PDAbsoluteThresholdMM: 5,
		PRRelativeThreshold:   0.30,
		Enaworu25mmRule:       true,
		Enaworu25mmCutoffMM:   25,
		ConfirmWindowLoDays:   28,
		ConfirmWindowHiDays:   84,
		SDMinDurationDays:     42,
		IRECISTConfirmLoDays:  28,
		IRECISTConfirmHiDays:  56,
		IMWG: IMWG{
			PDRelativeIncrease: 0.25,
			PDAbsoluteIncrease: 50,
			CRMaxDFLC:          40,
			VGPRMaxDFLC:        40,
			VGPRReduction:      0.90,
			PRReduction:        0.50,
			PRAbsoluteDecrease: 50,
			MRReduction:        0.25,
			RatioLow:           0.26,
			RatioHigh:          1.65,
			ConfirmMinDays:     28,
		},
		EarlyCensorDays: 90,
		LateCensorDays:  180,
		Workers:         runtime.GOMAXPROCS(0),
	}
}

// LoadDerivation reads a YAML derivation config and merges it over the defaults.
func LoadDerivation(path string) (Derivation, error) {
	d := DefaultDerivation()
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse config file: %w", err)
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// Validate rejects unknown methods, non-positive thresholds and inverted windows.
func (d *Derivation) Validate() error {
	switch d.BaselineMethod {
	case model.BaselinePretreat, model.BaselineFirst:
	default:
		return fmt.Errorf("unknown baseline_method %q", d.BaselineMethod)
	}
	switch d.NadirMethod {
	case model.NadirStandard, model.NadirExcludeBaseline:
	default:
		return fmt.Errorf("unknown nadir_method %q", d.NadirMethod)
	}
	positive := map[string]float64{
		"pd_relative_threshold":     d.PDRelativeThreshold,
		"pd_absolute_threshold_mm":  d.PDAbsoluteThresholdMM,
		"pr_relative_threshold":     d.PRRelativeThreshold,
		"enaworu_25mm_cutoff_mm":    d.Enaworu25mmCutoffMM,
		"imwg.pd_relative_increase": d.IMWG.PDRelativeIncrease,
		"imwg.pr_reduction":         d.IMWG.PRReduction,
		"imwg.mr_reduction":         d.IMWG.MRReduction,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}
	if d.PRRelativeThreshold >= 1 {
		return fmt.Errorf("pr_relative_threshold must be below 1, got %v", d.PRRelativeThreshold)
	}
	if d.ConfirmWindowLoDays < 1 || d.ConfirmWindowLoDays > d.ConfirmWindowHiDays {
		return fmt.Errorf("confirmation window [%d, %d] is invalid", d.ConfirmWindowLoDays, d.ConfirmWindowHiDays)
	}
	if d.IRECISTConfirmLoDays < 1 || d.IRECISTConfirmLoDays > d.IRECISTConfirmHiDays {
		return fmt.Errorf("iRECIST confirmation window [%d, %d] is invalid", d.IRECISTConfirmLoDays, d.IRECISTConfirmHiDays)
	}
	if d.SDMinDurationDays < 0 {
		return fmt.Errorf("sd_min_duration_days must not be negative")
	}
	if d.IMWG.MRReduction >= d.IMWG.PRReduction {
		return fmt.Errorf("imwg.mr_reduction (%v) must be below imwg.pr_reduction (%v)", d.IMWG.MRReduction, d.IMWG.PRReduction)
	}
	if d.EarlyCensorDays <= 0 || d.EarlyCensorDays > d.LateCensorDays {
		return fmt.Errorf("censor timing cut points [%d, %d] are invalid", d.EarlyCensorDays, d.LateCensorDays)
	}
	if d.Workers < 1 {
		d.Workers = 1
	}
	return nil
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.AssessmentsPath == "" {
		return fmt.Errorf("--assessments is required")
	}
	if _, err := os.Stat(c.AssessmentsPath); err != nil {
		return fmt.Errorf("assessments file not accessible: %w", err)
	}
	if c.StudyID == "" {
		return fmt.Errorf("--study-id must not be empty")
	}
	if c.SubjectsPath != "" {
		if _, err := os.Stat(c.SubjectsPath); err != nil {
			return fmt.Errorf("subjects file not accessible: %w", err)
		}
	}
	return c.Derivation.Validate()
}

// ValidateWithDSN checks the input files and, when persisting, the DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SubjectsPath == "" {
		return fmt.Errorf("--subjects is required for derive")
	}
	if c.DSN == "" && c.OutDir == "" {
		return fmt.Errorf("--dsn (or RESPDERIVE_DB_URL) or --out-dir is required")
	}
	return nil
}
