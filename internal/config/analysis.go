// Package config loads the analysis settings file and the environment
// overrides used by the detsim binary.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/banshee-data/detsim/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// Pass names accepted in "passes".
const (
	PassQuenching = "quenching"
	PassVeto      = "veto"
	PassNeutron   = "neutron"
)

// KnownPasses lists every pass in execution order.
var KnownPasses = []string{PassQuenching, PassVeto, PassNeutron}

// AnalysisConfig holds the optional settings of an analysis run. Nil
// fields fall back to the defaults returned by the Get* methods, so
// partial files are safe.
type AnalysisConfig struct {
	// Ingestion overrides of the simulation metadata.
	SubEventTimeDelay    *string `json:"sub_event_time_delay,omitempty"` // duration string like "100us"
	RemoveUnwantedTracks *bool   `json:"remove_unwanted_tracks,omitempty"`

	Passes []string `json:"passes,omitempty"`

	QuenchingFactor  *float64 `json:"quenching_factor,omitempty"`
	QuenchingVolumes []string `json:"quenching_volumes,omitempty"`

	VetoVolumePattern *string  `json:"veto_volume_pattern,omitempty"`
	VetoThresholdKeV  *float64 `json:"veto_threshold_kev,omitempty"`

	NeutronCaptureVolumes []string `json:"neutron_capture_volumes,omitempty"`
	NeutronTimeWindow     *string  `json:"neutron_time_window,omitempty"` // duration string

	Workers    *int    `json:"workers,omitempty"`
	EnergyUnit *string `json:"energy_unit,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file with a
// .json extension no larger than 1 MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AnalysisConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. It panics if the file cannot be loaded and
// is meant for tests and binaries run from the repository.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from the repository root")
}

// Validate checks the values that are set.
func (c *AnalysisConfig) Validate() error {
	for _, d := range []struct {
		key   string
		value *string
	}{
		{"sub_event_time_delay", c.SubEventTimeDelay},
		{"neutron_time_window", c.NeutronTimeWindow},
	} {
		if d.value == nil || *d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(*d.value)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", d.key, *d.value, err)
		}
		if parsed < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", d.key, *d.value)
		}
	}

	if c.QuenchingFactor != nil && (*c.QuenchingFactor <= 0 || *c.QuenchingFactor > 1) {
		return fmt.Errorf("quenching_factor must be in (0, 1], got %f", *c.QuenchingFactor)
	}
	if c.VetoThresholdKeV != nil && *c.VetoThresholdKeV < 0 {
		return fmt.Errorf("veto_threshold_kev must be non-negative, got %f", *c.VetoThresholdKeV)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.EnergyUnit != nil && !units.IsValid(*c.EnergyUnit) {
		return fmt.Errorf("energy_unit must be one of %s, got %q", units.GetValidUnitsString(), *c.EnergyUnit)
	}
	for _, p := range c.Passes {
		if !slices.Contains(KnownPasses, p) {
			return fmt.Errorf("unknown pass %q", p)
		}
	}
	return nil
}

// GetSubEventTimeDelay returns the override and whether one is set.
func (c *AnalysisConfig) GetSubEventTimeDelay() (time.Duration, bool) {
	if c.SubEventTimeDelay == nil || *c.SubEventTimeDelay == "" {
		return 0, false
	}
	d, err := time.ParseDuration(*c.SubEventTimeDelay)
	if err != nil {
		return 0, false
	}
	return d, true
}

// GetRemoveUnwantedTracks returns the override, or nil to keep the
// metadata setting.
func (c *AnalysisConfig) GetRemoveUnwantedTracks() *bool {
	return c.RemoveUnwantedTracks
}

// GetPasses returns the enabled passes in execution order. Default: all.
func (c *AnalysisConfig) GetPasses() []string {
	if len(c.Passes) == 0 {
		return KnownPasses
	}
	var out []string
	for _, p := range KnownPasses {
		if slices.Contains(c.Passes, p) {
			out = append(out, p)
		}
	}
	return out
}

// GetQuenchingFactor returns the quenching_factor value or the default.
func (c *AnalysisConfig) GetQuenchingFactor() float64 {
	if c.QuenchingFactor == nil {
		return 0.25
	}
	return *c.QuenchingFactor
}

// GetQuenchingVolumes returns the quenched volumes; empty means every
// active volume.
func (c *AnalysisConfig) GetQuenchingVolumes() []string {
	return c.QuenchingVolumes
}

// GetVetoVolumePattern returns the veto_volume_pattern value or the default.
func (c *AnalysisConfig) GetVetoVolumePattern() string {
	if c.VetoVolumePattern == nil {
		return "veto"
	}
	return *c.VetoVolumePattern
}

// GetVetoThresholdKeV returns the veto_threshold_kev value or the default.
func (c *AnalysisConfig) GetVetoThresholdKeV() float64 {
	if c.VetoThresholdKeV == nil {
		return 100
	}
	return *c.VetoThresholdKeV
}

// GetNeutronCaptureVolumes returns the capture volumes. When unset the
// caller uses the sensitive volume.
func (c *AnalysisConfig) GetNeutronCaptureVolumes() []string {
	return c.NeutronCaptureVolumes
}

// GetNeutronTimeWindow parses and returns the NeutronTimeWindow.
func (c *AnalysisConfig) GetNeutronTimeWindow() time.Duration {
	if c.NeutronTimeWindow == nil || *c.NeutronTimeWindow == "" {
		return 10 * time.Microsecond
	}
	d, err := time.ParseDuration(*c.NeutronTimeWindow)
	if err != nil {
		return 10 * time.Microsecond
	}
	return d
}

// GetWorkers returns the workers value; 0 means one per CPU.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetEnergyUnit returns the energy_unit value or the default.
func (c *AnalysisConfig) GetEnergyUnit() string {
	if c.EnergyUnit == nil || *c.EnergyUnit == "" {
		return units.KeV
	}
	return *c.EnergyUnit
}
