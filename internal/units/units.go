// Package units provides shared constants and conversions for the energy
// and length units used when reporting simulation results.
// Events store energies in keV and lengths in mm.
package units

import "strings"

// Energy unit constants
const (
	EV  = "eV"
	KeV = "keV"
	MeV = "MeV"
	GeV = "GeV"
)

// Length unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
)

// ValidEnergyUnits contains all valid energy unit values
var ValidEnergyUnits = []string{EV, KeV, MeV, GeV}

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{MM, CM, M}

// IsValid checks if the given energy unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidEnergyUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidLength checks if the given length unit is known.
func IsValidLength(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid energy units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidEnergyUnits, ", ")
}

// ConvertEnergy converts an energy from keV to the target units.
// Unknown units return the value unchanged (keV).
func ConvertEnergy(energyKeV float64, targetUnits string) float64 {
	switch targetUnits {
	case EV:
		return energyKeV * 1e3
	case KeV:
		return energyKeV
	case MeV:
		return energyKeV * 1e-3
	case GeV:
		return energyKeV * 1e-6
	default:
		return energyKeV
	}
}

// ToKeV converts an energy expressed in fromUnits back to keV.
func ToKeV(energy float64, fromUnits string) float64 {
	switch fromUnits {
	case EV:
		return energy * 1e-3
	case MeV:
		return energy * 1e3
	case GeV:
		return energy * 1e6
	default:
		return energy
	}
}

// ConvertLength converts a length from mm to the target units.
func ConvertLength(lengthMM float64, targetUnits string) float64 {
	switch targetUnits {
	case CM:
		return lengthMM * 0.1
	case M:
		return lengthMM * 1e-3
	default:
		return lengthMM
	}
}
