package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/gravity"
)

/*

json preset files, for custom initial conditions the generators don't
cover. example:

	{
	  "name": "two suns",
	  "bodies": [
	    {"mass": 1e10, "pos": [-9000, -100, -2000], "vel": [0.004, 0, -0.001]},
	    {"mass": 1e10, "pos": [9000, 100, 2000], "vel": [-0.003, 0, 0.002]}
	  ]
	}

*/

type presetBody struct {
	Mass float64    `json:"mass"`
	Pos  [3]float64 `json:"pos"`
	Vel  [3]float64 `json:"vel"`
}

type presetFile struct {
	Name   string       `json:"name"`
	Bodies []presetBody `json:"bodies"`
}

// loadPreset reads a json preset file into a body slice.
func loadPreset(path string) ([]*gravity.Body, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	var pf presetFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	if len(pf.Bodies) == 0 {
		return nil, fmt.Errorf("preset %s: no bodies", path)
	}

	bodies := make([]*gravity.Body, len(pf.Bodies))
	for i, pb := range pf.Bodies {
		b := gravity.NewBody(mgl64.Vec3{pb.Pos[0], pb.Pos[1], pb.Pos[2]}, pb.Mass)
		b.Vel = mgl64.Vec3{pb.Vel[0], pb.Vel[1], pb.Vel[2]}
		bodies[i] = b
	}
	return bodies, nil
}
