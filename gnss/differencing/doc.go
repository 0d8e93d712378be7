// Package differencing forms between-receiver, between-transmitter double
// differences of GNSS observables.
//
// For receivers A, B and transmitters r (reference) and k, the double
// difference of an observable φ is
//
//	∇Δφ = (φ[A,k] − φ[A,r]) − (φ[B,k] − φ[B,r])
//
// Receiver clock error is common to all transmitters seen by one receiver and
// transmitter clock error is common to all receivers seeing one transmitter,
// so both cancel. What remains is differential geometry, atmosphere,
// multipath, and (for carrier phase) the integer ambiguity.
//
// Each (baseline, epoch) pair is processed independently. Transmitters below
// the elevation mask are excluded and reported in [Result.Excluded]; a
// baseline/epoch with fewer than two usable common transmitters produces no
// differences and is reported in [Result.Gaps]. Neither is an error.
//
// # Usage
//
//	res, err := differencing.ComputeDoubleDifferences(measurements,
//	    []differencing.Baseline{{A: "BRUX", B: "WSRT"}},
//	    differencing.WithMinElevation(15))
//
// Consecutive epochs can be differenced again with [TripleDifferences] to
// screen carrier phase for cycle slips.
package differencing
