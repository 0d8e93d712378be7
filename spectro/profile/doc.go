// Package profile provides absorption line-shape weighting profiles.
//
// A profile maps a wavelength offset from a line center to a weight in
// [0, 1], peaking at 1 on the center. The estimator uses these weights to
// average measured absorbance across a line's window, so samples near the
// center dominate and wing samples contribute less.
//
// Three shapes are available:
//
//   - Rectangular: uniform weight inside the window
//   - Gaussian: Doppler-broadened shape, parameterised by FWHM
//   - Lorentzian: pressure-broadened shape, parameterised by FWHM
package profile
