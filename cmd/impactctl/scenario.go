package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

// scenario is the TOML form of one report run:
//
//	asteroid_id = "2000433"   # optional, replaces [impactor]
//
//	[impactor]
//	speed = 20000
//	size = 100
//	mass = 0                  # 0 estimates from size and composition
//	angle = 45
//	composition = "iron"
//
//	[location]
//	latitude = 35.6762
//	longitude = 139.6503
//	name = "Tokyo"
type scenario struct {
	AsteroidID string        `toml:"asteroid_id"`
	Impactor   impactorInput `toml:"impactor"`
	Location   locationInput `toml:"location"`
}

type impactorInput struct {
	Speed       float64 `toml:"speed"`
	Size        float64 `toml:"size"`
	Mass        float64 `toml:"mass"`
	Angle       float64 `toml:"angle"`
	Composition string  `toml:"composition"`
}

type locationInput struct {
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
	Name      string  `toml:"name"`
}

func defaultScenario() scenario {
	return scenario{
		Impactor: impactorInput{
			Speed:       domain.DefaultNEOSpeedMps,
			Size:        domain.DefaultNEODiameterM,
			Angle:       domain.DefaultNEOAngleDeg,
			Composition: string(domain.Stony),
		},
	}
}

// loadScenario reads path over the defaults, so omitted keys keep them.
func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	sc := defaultScenario()
	if err := toml.Unmarshal(data, &sc); err != nil {
		return scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return sc, nil
}

func (in impactorInput) params() (domain.ImpactorParameters, error) {
	return domain.NewImpactorEstimatingMass(in.Speed, in.Size, in.Mass, in.Angle, in.Composition)
}

func (in locationInput) location() (domain.ImpactLocation, error) {
	return domain.NewImpactLocation(in.Latitude, in.Longitude, in.Name)
}
