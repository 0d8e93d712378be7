// Package simulate generates synthetic GNSS measurements for testing and
// demonstrating the differencing pipeline.
//
// A [Scenario] places receivers on the WGS-84 ellipsoid and transmitters
// either at fixed ECEF positions or on SGP4 orbits propagated from
// two-line element sets. Every generated observable is the geometric range
// plus receiver and transmitter clock biases and a tropospheric delay, so
// double differences of the output recover the clock-free geometry.
package simulate
