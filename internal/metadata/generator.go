package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// GeneratorKind selects how primary vertices are placed.
type GeneratorKind string

const (
	KindPoint   GeneratorKind = "point"
	KindVolume  GeneratorKind = "volume"
	KindSurface GeneratorKind = "surface"
	KindCustom  GeneratorKind = "custom"
)

// Shape is the geometric primitive of a volume or surface generator, or of a
// biasing volume.
type Shape string

const (
	ShapePoint    Shape = "point"
	ShapeBox      Shape = "box"
	ShapeSphere   Shape = "sphere"
	ShapeCylinder Shape = "cylinder"
	ShapeCircle   Shape = "circle"
	ShapeWall     Shape = "wall"
)

// shapeDims is the number of size parameters each shape takes:
// box half-lengths (x, y, z), sphere and circle radius, cylinder radius and
// length, wall width and height.
var shapeDims = map[Shape]int{
	ShapePoint:    0,
	ShapeBox:      3,
	ShapeSphere:   1,
	ShapeCylinder: 2,
	ShapeCircle:   1,
	ShapeWall:     2,
}

// ErrGeneratorMismatch is returned when the generator kind and the variant
// fields set on it disagree.
var ErrGeneratorMismatch = errors.New("generator kind does not match its parameters")

// ErrShapeSize is returned when a shape gets the wrong number of sizes.
var ErrShapeSize = errors.New("wrong number of size parameters for shape")

// Generator is a tagged variant: Kind names the one variant field that must
// be set. The other variant fields must be nil.
type Generator struct {
	Kind GeneratorKind `yaml:"kind" validate:"required,oneof=point volume surface custom"`

	Point   *PointSource   `yaml:"point,omitempty"`
	Volume  *VolumeSource  `yaml:"volume,omitempty"`
	Surface *SurfaceSource `yaml:"surface,omitempty"`
	Custom  *CustomSource  `yaml:"custom,omitempty"`

	Particles []ParticleSource `yaml:"particles" validate:"required,min=1,dive"`
}

// PointSource emits every primary from one position.
type PointSource struct {
	Position []float64 `yaml:"position" validate:"required,len=3"`
}

// VolumeSource samples vertices uniformly inside a solid. FromVolume binds
// the solid to a geometry volume instead of an explicit shape.
type VolumeSource struct {
	Shape      Shape     `yaml:"shape" validate:"omitempty,oneof=box sphere cylinder"`
	Position   []float64 `yaml:"position" validate:"omitempty,len=3"`
	Size       []float64 `yaml:"size" validate:"dive,gt=0"`
	FromVolume string    `yaml:"from_volume"`
}

// SurfaceSource samples vertices on a surface and optionally fixes the
// emission normal.
type SurfaceSource struct {
	Shape    Shape     `yaml:"shape" validate:"required,oneof=circle wall sphere cylinder"`
	Position []float64 `yaml:"position" validate:"omitempty,len=3"`
	Size     []float64 `yaml:"size" validate:"dive,gt=0"`
	Normal   []float64 `yaml:"normal" validate:"omitempty,len=3"`
}

// CustomSource replays vertices from an external file.
type CustomSource struct {
	File string `yaml:"file" validate:"required"`
}

// ParticleSource is one primary species emitted by the generator.
type ParticleSource struct {
	Name                string    `yaml:"name" validate:"required"`
	Energy              float64   `yaml:"energy_kev" validate:"gte=0"`
	EnergyDistribution  string    `yaml:"energy_distribution" validate:"omitempty,oneof=mono flat"`
	EnergyRange         []float64 `yaml:"energy_range_kev" validate:"omitempty,len=2,dive,gte=0"`
	AngularDistribution string    `yaml:"angular_distribution" validate:"omitempty,oneof=isotropic flux backtoback"`
	Direction           []float64 `yaml:"direction" validate:"omitempty,len=3"`
}

// Validate checks the cross-field rules tags cannot express: exactly the
// variant named by Kind is set, and its shape has the right number of sizes.
func (g *Generator) Validate() error {
	set := make([]string, 0, 4)
	if g.Point != nil {
		set = append(set, string(KindPoint))
	}
	if g.Volume != nil {
		set = append(set, string(KindVolume))
	}
	if g.Surface != nil {
		set = append(set, string(KindSurface))
	}
	if g.Custom != nil {
		set = append(set, string(KindCustom))
	}
	if len(set) != 1 || set[0] != string(g.Kind) {
		return fmt.Errorf("kind %q with parameters for [%s]: %w", g.Kind, strings.Join(set, ", "), ErrGeneratorMismatch)
	}

	var err error
	switch g.Kind {
	case KindVolume:
		if g.Volume.FromVolume == "" {
			err = checkShapeSize(g.Volume.Shape, g.Volume.Size)
		}
	case KindSurface:
		err = checkShapeSize(g.Surface.Shape, g.Surface.Size)
	}
	if err != nil {
		return fmt.Errorf("%s generator: %w", g.Kind, err)
	}

	for i, p := range g.Particles {
		if p.EnergyDistribution == "flat" && len(p.EnergyRange) != 2 {
			return fmt.Errorf("particle %d (%s): flat spectrum needs energy_range_kev", i, p.Name)
		}
		if len(p.EnergyRange) == 2 && p.EnergyRange[0] >= p.EnergyRange[1] {
			return fmt.Errorf("particle %d (%s): energy range [%g, %g] is empty", i, p.Name, p.EnergyRange[0], p.EnergyRange[1])
		}
	}
	return nil
}

// Describe returns a one-line summary of the generator.
func (g *Generator) Describe() string {
	var where string
	switch g.Kind {
	case KindPoint:
		where = fmt.Sprintf("point at %v mm", g.Point.Position)
	case KindVolume:
		if g.Volume.FromVolume != "" {
			where = fmt.Sprintf("inside volume %s", g.Volume.FromVolume)
		} else {
			where = fmt.Sprintf("inside %s %v mm at %v", g.Volume.Shape, g.Volume.Size, g.Volume.Position)
		}
	case KindSurface:
		where = fmt.Sprintf("on %s %v mm at %v", g.Surface.Shape, g.Surface.Size, g.Surface.Position)
	case KindCustom:
		where = fmt.Sprintf("from file %s", g.Custom.File)
	default:
		where = "unknown kind " + string(g.Kind)
	}

	names := make([]string, 0, len(g.Particles))
	for _, p := range g.Particles {
		names = append(names, fmt.Sprintf("%s (%g keV)", p.Name, p.Energy))
	}
	return fmt.Sprintf("%s generator %s emitting %s", g.Kind, where, strings.Join(names, ", "))
}

func checkShapeSize(shape Shape, size []float64) error {
	want, ok := shapeDims[shape]
	if !ok {
		return fmt.Errorf("unknown shape %q", shape)
	}
	if len(size) != want {
		return fmt.Errorf("%s takes %d sizes, got %d: %w", shape, want, len(size), ErrShapeSize)
	}
	return nil
}
