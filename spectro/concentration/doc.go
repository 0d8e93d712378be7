// Package concentration estimates molecular concentrations from a measured
// absorbance spectrum by inverting the Beer-Lambert law,
//
//	A = ε · c · l
//
// against an absorption-line database.
//
// For every line the estimator selects the spectral samples inside the
// line's window (center ± scale·FWHM/2), forms a profile-weighted average of
// their absorbance, and divides by ε·l. Weights come from
// [profile.WindowWeights], so every sample in the window counts, including
// samples deep in the wings of a widened window. With known pressure and temperature
// the result is converted to ppm through the ideal-gas total molar
// concentration; otherwise the estimate stays in mol/L and is flagged
// uncalibrated.
//
// Uncertainty is the weighted standard deviation of absorbance in the window,
// propagated through the same scaling. A window with fewer than two samples
// cannot bound its spread, so its uncertainty is +Inf and the estimate carries
// [FlagUnboundedUncertainty]. Lines without any overlapping sample are omitted
// from the result.
package concentration
