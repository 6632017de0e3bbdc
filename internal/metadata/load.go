package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/detsim/internal/fsutil"
	"github.com/banshee-data/detsim/internal/monitoring"
)

// maxMetadataSize bounds metadata files.
const maxMetadataSize = 1 << 20

// ErrInvalidMetadata wraps every validation failure.
var ErrInvalidMetadata = errors.New("invalid simulation metadata")

var metaValidate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and parses a YAML metadata file from fsys.
func Load(fsys fsutil.FileSystem, path string) (*Simulation, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("metadata file must be .yaml or .yml, got %q", ext)
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat metadata file: %w", err)
	}
	if info.Size() > maxMetadataSize {
		return nil, fmt.Errorf("metadata file too large: %d bytes (max %d)", info.Size(), maxMetadataSize)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	sim, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sim, nil
}

// Parse decodes, validates and indexes a YAML metadata document. Unknown
// keys are rejected. The returned Simulation is not frozen.
func Parse(data []byte) (*Simulation, error) {
	var sim Simulation
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sim); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := sim.Validate(); err != nil {
		return nil, err
	}
	if err := sim.buildRegistries(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	if err := sim.checkVolumes(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	if sim.RunID == "" {
		sim.RunUUID = uuid.New()
		sim.RunID = sim.RunUUID.String()
		monitoring.Logf("metadata: no run_uuid given, assigned %s", sim.RunID)
	} else {
		id, err := uuid.Parse(sim.RunID)
		if err != nil {
			return nil, fmt.Errorf("%w: run_uuid: %w", ErrInvalidMetadata, err)
		}
		sim.RunUUID = id
	}
	return &sim, nil
}

// Validate runs the struct tag rules and the cross-field checks.
func (s *Simulation) Validate() error {
	if err := metaValidate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	if err := s.Generator.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	for i := range s.Biasing {
		if err := s.Biasing[i].validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
		}
	}
	seen := make(map[string]bool, len(s.Storage.ActiveVolumes))
	for _, v := range s.Storage.ActiveVolumes {
		if seen[v.Name] {
			return fmt.Errorf("%w: active volume %q listed twice", ErrInvalidMetadata, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// MustParse is Parse for tests and fixtures; it panics on error.
func MustParse(data []byte) *Simulation {
	sim, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return sim
}
