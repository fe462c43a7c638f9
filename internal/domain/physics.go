package domain

import "math"

// Scaling-law constants. These are fixed properties of the model.
const (
	JoulesPerMegaton = 4.184e15

	craterCoefficient = 1.8
	craterExponent    = 0.3
	blastExponent     = 0.33
	blastCoefficient  = 2.0
	evacCoefficient   = 5.0
	seismicBase       = 4.0
)

// ImpactMetrics holds the headline figures derived from an impactor.
type ImpactMetrics struct {
	EnergyJoules         float64 `json:"energyJoules"`
	EnergyMegatons       float64 `json:"impactEnergy"`
	CraterDiameterMeters float64 `json:"craterDiameter"`
	BlastRadiusKm        float64 `json:"blastRadius"`
	EvacuationZoneKm     float64 `json:"evacuationZone"`
	SeismicMagnitude     float64 `json:"seismicMagnitude"`
}

// KineticEnergy returns 0.5·m·v² in joules.
func KineticEnergy(massKg, speedMps float64) float64 {
	return 0.5 * massKg * speedMps * speedMps
}

// ComputeMetrics applies the scaling laws to p. It is deterministic and depends
// only on mass and speed. NewImpactorParameters rejects inputs whose energy is
// not positive and finite; the guard below only covers the zero value and other
// structs built without it, which yield zero metrics instead of NaN or -Inf.
func ComputeMetrics(p ImpactorParameters) ImpactMetrics {
	joules := KineticEnergy(p.MassKg, p.SpeedMps)
	if !(joules > 0) || math.IsInf(joules, 0) {
		return ImpactMetrics{}
	}
	mt := joules / JoulesPerMegaton
	base := math.Pow(mt, blastExponent)

	return ImpactMetrics{
		EnergyJoules:         joules,
		EnergyMegatons:       mt,
		CraterDiameterMeters: craterCoefficient * math.Pow(mt, craterExponent) * 1000,
		BlastRadiusKm:        blastCoefficient * base,
		EvacuationZoneKm:     evacCoefficient * base,
		SeismicMagnitude:     seismicBase + math.Log10(mt),
	}
}

// DamageZones are concentric radii around the impact point, in km.
type DamageZones struct {
	ImmediateKm  float64 `json:"immediate"`
	SevereKm     float64 `json:"severe"`
	ModerateKm   float64 `json:"moderate"`
	EvacuationKm float64 `json:"evacuation"`
}

// Zones returns the damage zones for m. Severe and evacuation radii are the
// metric values themselves so narratives quote them exactly.
func (m ImpactMetrics) Zones() DamageZones {
	base := math.Pow(m.EnergyMegatons, blastExponent)
	return DamageZones{
		ImmediateKm:  base,
		SevereKm:     m.BlastRadiusKm,
		ModerateKm:   3.5 * base,
		EvacuationKm: m.EvacuationZoneKm,
	}
}
