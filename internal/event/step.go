package event

import "gonum.org/v1/gonum/spatial/r3"

// TargetIsotope annotates a hadronic hit with the nucleus it interacted
// with. A zero value means no annotation.
type TargetIsotope struct {
	Name string
	A    int
	Z    int
}

// IsZero reports whether the annotation is absent.
func (t TargetIsotope) IsZero() bool { return t.Name == "" && t.A == 0 && t.Z == 0 }

// Step is one transport step as reported by the simulation engine.
// Energies are in keV, lengths in mm, time in seconds.
type Step struct {
	TrackID        int
	ParentID       int
	ParticleName   string
	CreatorProcess string // only meaningful on the first step of a track

	Position          r3.Vec
	MomentumDirection r3.Vec
	Time              float64

	Energy            float64 // deposited
	KineticEnergyPre  float64
	KineticEnergyPost float64
	StepLength        float64

	PreVolume   string
	PostVolume  string
	VolumeID    int // geometry id of PreVolume, resolved by the caller
	ProcessName string
	ProcessID   int

	Target TargetIsotope
}

// TrackInfo is the transport engine's description of a track at creation.
type TrackInfo struct {
	TrackID              int
	ParentID             int
	ParticleName         string
	ParticleType         string
	ParticleSubType      string
	CreatorProcess       string
	InitialKineticEnergy float64
	InitialPosition      r3.Vec
	Weight               float64
	NumberOfSecondaries  int
}
