package domain

import "math"

// EstimateMass returns the mass in kg of a sphere of the given diameter made of
// composition. Unknown compositions use DefaultDensity. Callers must ensure
// diameter > 0.
func EstimateMass(diameterM float64, composition Composition) float64 {
	return EstimateMassWithDensity(diameterM, composition.Density())
}

// EstimateMassWithDensity returns the mass in kg of a sphere of the given
// diameter and bulk density in kg/m³.
func EstimateMassWithDensity(diameterM, densityKgM3 float64) float64 {
	r := diameterM / 2
	volume := 4.0 / 3.0 * math.Pi * r * r * r
	return volume * densityKgM3
}

// EstimateMassFromInput validates a raw diameter and composition name, then
// estimates the mass.
func EstimateMassFromInput(diameterM float64, composition string) (float64, error) {
	if err := positive("diameter", diameterM); err != nil {
		return 0, err
	}
	c, err := ParseComposition(composition)
	if err != nil {
		return 0, err
	}
	return EstimateMass(diameterM, c), nil
}
