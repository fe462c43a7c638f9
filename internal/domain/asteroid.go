package domain

import "context"

// Defaults applied when a NeoWs record lacks a field, and to every NEO-derived impactor.
const (
	DefaultNEODiameterM = 100.0
	DefaultNEOSpeedMps  = 20000.0
	DefaultNEOAngleDeg  = 45.0
)

// AsteroidData is the subset of a near-Earth object record the simulator uses.
type AsteroidData struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	SpeedMps          float64 `json:"speed"`
	DiameterM         float64 `json:"size"`
	MassKg            float64 `json:"mass"`
	IsHazardous       bool    `json:"isPotentiallyHazardous"`
	AbsoluteMagnitude float64 `json:"absoluteMagnitude"`
}

// Impactor maps the object to simulator input: 45° entry, stony composition.
func (a AsteroidData) Impactor() (ImpactorParameters, error) {
	return NewImpactorParameters(a.SpeedMps, a.DiameterM, a.MassKg, DefaultNEOAngleDeg, string(Stony))
}

// AsteroidDataProvider looks up near-Earth objects by ID.
type AsteroidDataProvider interface {
	// FetchByID returns ErrAsteroidNotFound for unknown IDs and a wrapped
	// transport or decode error otherwise. It never fabricates data on failure.
	FetchByID(ctx context.Context, id string) (AsteroidData, error)
}
