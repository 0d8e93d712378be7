// Package observation defines GNSS ranging measurements and groups them into
// epochs for differencing.
//
// A [Measurement] carries both observables of one receiver tracking one
// transmitter at one instant: the code pseudorange in metres and the carrier
// phase in cycles. Both refer to the same nominal carrier frequency, which
// fixes the wavelength used to express the carrier phase in metres.
package observation
