// Package absorbance models measured absorbance spectra and provides the
// preprocessing steps applied before concentration inversion: Gaussian
// smoothing and polynomial baseline removal.
package absorbance
