package event

// The maps below are reductions of EnergyBreakdown (volume -> particle ->
// process). They are recomputed on every call so they cannot drift from
// the breakdown.

// EnergyInVolumeMap returns volume -> keV.
func (e *Event) EnergyInVolumeMap() map[string]float64 {
	out := make(map[string]float64, len(e.EnergyBreakdown))
	for volume, particles := range e.EnergyBreakdown {
		for _, processes := range particles {
			for _, energy := range processes {
				out[volume] += energy
			}
		}
	}
	return out
}

// EnergyInVolumePerParticleMap returns volume -> particle -> keV.
func (e *Event) EnergyInVolumePerParticleMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(e.EnergyBreakdown))
	for volume, particles := range e.EnergyBreakdown {
		perParticle := make(map[string]float64, len(particles))
		for particle, processes := range particles {
			for _, energy := range processes {
				perParticle[particle] += energy
			}
		}
		out[volume] = perParticle
	}
	return out
}

// EnergyInVolumePerProcessMap returns volume -> process -> keV.
func (e *Event) EnergyInVolumePerProcessMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(e.EnergyBreakdown))
	for volume, particles := range e.EnergyBreakdown {
		perProcess := make(map[string]float64)
		for _, processes := range particles {
			for process, energy := range processes {
				perProcess[process] += energy
			}
		}
		out[volume] = perProcess
	}
	return out
}

// EnergyPerParticleMap returns particle -> keV summed over volumes.
func (e *Event) EnergyPerParticleMap() map[string]float64 {
	out := make(map[string]float64)
	for _, particles := range e.EnergyBreakdown {
		for particle, processes := range particles {
			for _, energy := range processes {
				out[particle] += energy
			}
		}
	}
	return out
}

// EnergyPerProcessMap returns process -> keV summed over volumes.
func (e *Event) EnergyPerProcessMap() map[string]float64 {
	out := make(map[string]float64)
	for _, particles := range e.EnergyBreakdown {
		for _, processes := range particles {
			for process, energy := range processes {
				out[process] += energy
			}
		}
	}
	return out
}

// EnergyInVolumeForParticle returns the energy particle deposited in
// volume, or 0.
func (e *Event) EnergyInVolumeForParticle(volume, particle string) float64 {
	var sum float64
	for _, energy := range e.EnergyBreakdown[volume][particle] {
		sum += energy
	}
	return sum
}

// BreakdownTotal sums every cell of EnergyBreakdown.
func (e *Event) BreakdownTotal() float64 {
	var sum float64
	for _, particles := range e.EnergyBreakdown {
		for _, processes := range particles {
			for _, energy := range processes {
				sum += energy
			}
		}
	}
	return sum
}
