package data

import "roadsim/model"

// LightTimings maps a preset name to its phase durations in seconds.
// "crossroads" is the default for manually installed lights and crossroads
// preinstalls; "roundabout8" stretches red so coordinated rings with more
// competing arms stay fair.
var LightTimings = map[string]model.Timing{
	"crossroads":  {Green: 8, Yellow: 2, Red: 10},
	"roundabout8": {Green: 8, Yellow: 3, Red: 13},
	"calm":        {Green: 12, Yellow: 2, Red: 6},
}

// VehicleSpeeds maps a vehicle class to its progress step in world units
// per tick.
var VehicleSpeeds = map[string]float64{
	"car":   2.0,
	"bus":   1.4,
	"truck": 1.1,
}

// VehicleColors is the spawn palette, cycled in order.
var VehicleColors = []string{"blue", "red", "orange", "purple", "teal", "magenta"}
