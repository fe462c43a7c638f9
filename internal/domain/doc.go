// Package domain models a meteor impact scenario: the impactor, where it lands,
// the damage metrics derived from it, and the report built from those metrics.
//
// # Inputs
//
// An impactor is described by speed (m/s), diameter (m), mass (kg), entry angle
// (degrees from horizontal, 0–90) and composition. Compositions bind to a fixed
// bulk density:
//
//	iron          7800 kg/m³
//	stony         3500 kg/m³
//	stony-iron    5000 kg/m³
//	carbonaceous  2500 kg/m³
//
// When only a diameter is known, mass is the volume of a sphere of that
// diameter times the density. Near-Earth objects loaded from NASA NeoWs use a
// flat 3000 kg/m³ because NeoWs publishes no composition.
//
// All values are validated once, in [NewImpactorParameters] and
// [NewImpactLocation]. Formulas downstream assume valid input and never see a
// non-positive mass or speed.
//
// # Scaling Laws
//
// Energy is kinetic, 0.5·m·v², expressed in megatons of TNT (1 Mt = 4.184e15 J).
// Every damage figure is a power law of that energy E (in Mt):
//
//	crater diameter     1.8 · E^0.3 · 1000 m
//	blast radius        2 · E^0.33 km
//	evacuation zone     5 · E^0.33 km
//	seismic magnitude   4 + log10(E)
//
// Damage zones are multiples of the same E^0.33 base: immediate ×1, severe ×2,
// moderate ×3.5, evacuation ×5. Casualty ranges scale with E^0.5. These laws are
// illustrative, not peer-reviewed; they exist to give the narrative consistent
// numbers. Magnitudes below 4 for sub-megaton impacts are expected.
//
// # Consistency
//
// Metrics are computed once per simulation run by [ComputeMetrics] and the same
// [ImpactMetrics] value travels into both the report and its narrative, so a
// provider-written report and a fallback report can never disagree on numbers.
package domain
