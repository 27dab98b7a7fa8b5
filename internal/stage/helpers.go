package stage

import (
	"stylus/internal/services"
	"stylus/internal/trackinfo"
)

// ParseTrack parses a serialized track envelope and returns it.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseTrack(raw string) (trackinfo.Track, error) {
	track, err := trackinfo.Parse(raw)
	if err != nil {
		return trackinfo.Track{}, services.Wrap(
			services.ErrValidation, "stage", "parse track metadata",
			"Track metadata missing or invalid; rerun resolution", err)
	}
	return track, nil
}
