// Package geometry converts between WGS-84 geodetic and Earth-centred,
// Earth-fixed (ECEF) coordinates and computes the look angles from a
// receiver to a transmitter.
//
// All positions are ECEF in metres, represented as gonum [r3.Vec].
// Angles are in degrees at the API boundary.
package geometry
