package metadata

import "fmt"

// BiasingVolume is a variance-reduction region: particles crossing it in
// Direction within EnergyRange are split (Factor > 1) or rouletted
// (Factor < 1). Only the description is stored; the transport engine
// applies it.
type BiasingVolume struct {
	Name        string    `yaml:"name" validate:"required"`
	Shape       Shape     `yaml:"shape" validate:"required,oneof=box sphere cylinder"`
	Position    []float64 `yaml:"position" validate:"omitempty,len=3"`
	Size        []float64 `yaml:"size" validate:"required,dive,gt=0"`
	Factor      float64   `yaml:"factor" validate:"gt=0"`
	EnergyRange []float64 `yaml:"energy_range_kev" validate:"omitempty,len=2,dive,gte=0"`
	Direction   string    `yaml:"direction" validate:"omitempty,oneof=inwards outwards both"`
	Particle    string    `yaml:"particle"`
}

func (b *BiasingVolume) validate() error {
	if err := checkShapeSize(b.Shape, b.Size); err != nil {
		return fmt.Errorf("biasing volume %s: %w", b.Name, err)
	}
	if len(b.EnergyRange) == 2 && b.EnergyRange[0] >= b.EnergyRange[1] {
		return fmt.Errorf("biasing volume %s: energy range [%g, %g] is empty", b.Name, b.EnergyRange[0], b.EnergyRange[1])
	}
	return nil
}

// AppliesTo reports whether a particle of the given name and kinetic energy
// (keV) is biased by this volume. An empty Particle matches every particle
// and a missing EnergyRange matches every energy.
func (b *BiasingVolume) AppliesTo(particle string, energy float64) bool {
	if b.Particle != "" && b.Particle != particle {
		return false
	}
	if len(b.EnergyRange) == 2 {
		return energy >= b.EnergyRange[0] && energy < b.EnergyRange[1]
	}
	return true
}
