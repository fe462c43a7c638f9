package domain

import "math"

// Range is an inclusive low–high estimate.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Consequences are the secondary estimates quoted in a fallback narrative.
// All of them are power laws of the energy in megatons.
type Consequences struct {
	Deaths            Range   `json:"deaths"`
	Injuries          Range   `json:"injuries"`
	PopulationAtRisk  float64 `json:"populationAtRisk"`
	SeismicFeltKm     float64 `json:"seismicFeltKm"`
	DustAltitudeKm    float64 `json:"dustAltitudeKm"`
	CraterDepthMeters float64 `json:"craterDepthMeters"`
	EjectaRangeKm     float64 `json:"ejectaRangeKm"`
	UtilityOutageKm   float64 `json:"utilityOutageKm"`
	EconomicLossBnUSD Range   `json:"economicLossBnUsd"`
	HiroshimaMultiple float64 `json:"hiroshimaMultiple"`
	ComparableEvent   string  `json:"comparableEvent"`
	ExceedsComparable bool    `json:"exceedsComparable"`
}

// hiroshimaDivisor converts megatons into the report's Hiroshima-equivalent figure.
const hiroshimaDivisor = 15.0

// EstimateConsequences derives the secondary estimates from m.
func EstimateConsequences(m ImpactMetrics) Consequences {
	e := m.EnergyMegatons
	sqrtE := math.Sqrt(e)
	base := math.Pow(e, blastExponent)

	c := Consequences{
		Deaths:            Range{Low: math.Round(sqrtE * 50_000), High: math.Round(sqrtE * 100_000)},
		Injuries:          Range{Low: math.Round(sqrtE * 150_000), High: math.Round(sqrtE * 300_000)},
		PopulationAtRisk:  math.Round(sqrtE * 500_000),
		SeismicFeltKm:     math.Pow(e, 0.4) * 100,
		DustAltitudeKm:    math.Pow(e, 0.25) * 10,
		CraterDepthMeters: m.CraterDiameterMeters * 0.3,
		EjectaRangeKm:     math.Pow(e, 0.35) * 50,
		UtilityOutageKm:   base * 10,
		EconomicLossBnUSD: Range{Low: e * 5, High: e * 10},
		HiroshimaMultiple: e / hiroshimaDivisor,
	}
	if e > 10 {
		c.ComparableEvent = "Tunguska event (1908)"
		c.ExceedsComparable = true
	} else {
		c.ComparableEvent = "Chelyabinsk meteor (2013)"
	}
	return c
}
