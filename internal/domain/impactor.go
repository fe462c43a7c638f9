package domain

import (
	"fmt"
	"math"
	"strings"
)

// Composition is the bulk material class of an impactor.
type Composition string

const (
	Iron         Composition = "iron"
	Stony        Composition = "stony"
	StonyIron    Composition = "stony-iron"
	Carbonaceous Composition = "carbonaceous"
)

// Densities in kg/m³.
const (
	DefaultDensity = 3500.0 // stony; used for unrecognized compositions
	NEODensity     = 3000.0 // assumed for NeoWs objects, which carry no composition
)

var densities = map[Composition]float64{
	Iron:         7800,
	Stony:        3500,
	StonyIron:    5000,
	Carbonaceous: 2500,
}

// Compositions lists the supported compositions in display order.
func Compositions() []Composition {
	return []Composition{Iron, Stony, StonyIron, Carbonaceous}
}

// Density returns the bulk density for c, falling back to DefaultDensity.
func (c Composition) Density() float64 {
	if d, ok := densities[c]; ok {
		return d
	}
	return DefaultDensity
}

// Valid reports whether c is one of the known compositions.
func (c Composition) Valid() bool {
	_, ok := densities[c]
	return ok
}

// ParseComposition normalizes case and whitespace and rejects unknown values.
func ParseComposition(s string) (Composition, error) {
	c := Composition(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", invalid("composition", "%q is not one of iron, stony, stony-iron, carbonaceous", s)
	}
	return c, nil
}

// ImpactorParameters describes the incoming object. Construct with
// NewImpactorParameters; the zero value is not a valid impactor.
type ImpactorParameters struct {
	SpeedMps    float64     `json:"speed"`
	DiameterM   float64     `json:"size"`
	MassKg      float64     `json:"mass"`
	AngleDeg    float64     `json:"angle"`
	Composition Composition `json:"composition"`
}

// NewImpactorParameters validates raw input and returns an immutable impactor.
func NewImpactorParameters(speedMps, diameterM, massKg, angleDeg float64, composition string) (ImpactorParameters, error) {
	if err := positive("speed", speedMps); err != nil {
		return ImpactorParameters{}, err
	}
	if err := positive("diameter", diameterM); err != nil {
		return ImpactorParameters{}, err
	}
	if err := positive("mass", massKg); err != nil {
		return ImpactorParameters{}, err
	}
	// Each factor can be in range while the product overflows or underflows.
	if e := KineticEnergy(massKg, speedMps); !finite(e) || !(e/JoulesPerMegaton > 0) {
		return ImpactorParameters{}, invalid("energy", "0.5·mass·speed² = %v J is not a positive finite energy", e)
	}
	if !finite(angleDeg) || angleDeg < 0 || angleDeg > 90 {
		return ImpactorParameters{}, invalid("angle", "%v is outside [0, 90] degrees", angleDeg)
	}
	comp, err := ParseComposition(composition)
	if err != nil {
		return ImpactorParameters{}, err
	}
	return ImpactorParameters{
		SpeedMps:    speedMps,
		DiameterM:   diameterM,
		MassKg:      massKg,
		AngleDeg:    angleDeg,
		Composition: comp,
	}, nil
}

// NewImpactorEstimatingMass is NewImpactorParameters with a zero mass replaced
// by the estimate for the diameter and composition.
func NewImpactorEstimatingMass(speedMps, diameterM, massKg, angleDeg float64, composition string) (ImpactorParameters, error) {
	if massKg == 0 {
		m, err := EstimateMassFromInput(diameterM, composition)
		if err != nil {
			return ImpactorParameters{}, err
		}
		massKg = m
	}
	return NewImpactorParameters(speedMps, diameterM, massKg, angleDeg, composition)
}

// Validate re-checks a value that may have been built without the constructor,
// e.g. decoded from JSON.
func (p ImpactorParameters) Validate() error {
	_, err := NewImpactorParameters(p.SpeedMps, p.DiameterM, p.MassKg, p.AngleDeg, string(p.Composition))
	return err
}

// ImpactLocation is the point of impact.
type ImpactLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// LocationPlaceholder stands in for a missing location name.
const LocationPlaceholder = "the target location"

// NewImpactLocation validates coordinates and trims the optional name.
func NewImpactLocation(lat, lon float64, name string) (ImpactLocation, error) {
	if !finite(lat) || lat < -90 || lat > 90 {
		return ImpactLocation{}, invalid("latitude", "%v is outside [-90, 90]", lat)
	}
	if !finite(lon) || lon < -180 || lon > 180 {
		return ImpactLocation{}, invalid("longitude", "%v is outside [-180, 180]", lon)
	}
	return ImpactLocation{Latitude: lat, Longitude: lon, Name: strings.TrimSpace(name)}, nil
}

// Validate re-checks a location that may have been decoded without the constructor.
func (l ImpactLocation) Validate() error {
	_, err := NewImpactLocation(l.Latitude, l.Longitude, l.Name)
	return err
}

// DisplayName returns the location name or LocationPlaceholder.
func (l ImpactLocation) DisplayName() string {
	if l.Name == "" {
		return LocationPlaceholder
	}
	return l.Name
}

// Coordinates formats the position with hemisphere suffixes, e.g. "40.7128°N, 74.0060°W".
func (l ImpactLocation) Coordinates() string {
	ns, ew := "N", "E"
	if l.Latitude < 0 {
		ns = "S"
	}
	if l.Longitude < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", math.Abs(l.Latitude), ns, math.Abs(l.Longitude), ew)
}

func positive(field string, v float64) error {
	if !finite(v) || v <= 0 {
		return invalid(field, "must be a positive number, got %v", v)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
