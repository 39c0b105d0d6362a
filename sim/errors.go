package sim

import "errors"

var (
	// ErrNoRoadNearby means spawn found no road segment close enough to
	// the requested start point.
	ErrNoRoadNearby = errors.New("no road near spawn point")

	// ErrPathTooShort means the built path had fewer than 2 points.
	ErrPathTooShort = errors.New("built path too short")

	// ErrLightCapExceeded means the node already holds its maximum
	// number of traffic lights for its road type.
	ErrLightCapExceeded = errors.New("traffic light cap exceeded at node")
)
