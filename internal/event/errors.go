package event

import "errors"

var (
	// ErrDuplicateTrackID is returned when a track id is inserted twice into
	// one event. The event under construction must be abandoned.
	ErrDuplicateTrackID = errors.New("duplicate track id")

	// ErrTrackIndexInconsistent is returned when the id->index map disagrees
	// with the track sequence.
	ErrTrackIndexInconsistent = errors.New("track index inconsistent with track sequence")

	// ErrNoMetadataContext is returned when a process, particle or volume
	// name must be resolved but no metadata is attached.
	ErrNoMetadataContext = errors.New("no metadata context attached")

	// ErrNilTrack is returned by AddTrack for a nil track.
	ErrNilTrack = errors.New("nil track")
)

var (
	// ErrTrackNotFound is returned by mutators addressed at an unknown id.
	ErrTrackNotFound = errors.New("track not found")

	// ErrInvalidFactor is returned for negative or non-finite scale factors.
	ErrInvalidFactor = errors.New("invalid energy scale factor")
)
