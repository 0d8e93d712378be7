package csvio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cwbudde/algo-atmos/gnss/observation"
)

var measurementColumns = []string{
	"receiver", "transmitter", "epoch", "pseudorange_m", "carrier_phase_cycles",
	"frequency_hz", "cn0_dbhz", "elevation_deg", "azimuth_deg",
}

// ReadMeasurements parses a measurement file. Epochs are RFC 3339 with
// optional fractional seconds. The azimuth column may be absent.
func ReadMeasurements(r io.Reader) ([]observation.Measurement, error) {
	cr := newReader(r)
	h, err := readHeader(cr, measurementColumns[:8]...)
	if err != nil {
		return nil, err
	}

	var out []observation.Measurement
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		line, _ := cr.FieldPos(0)

		m := observation.Measurement{
			Receiver:    observation.ReceiverID(h.str(row, "receiver")),
			Transmitter: observation.TransmitterID(h.str(row, "transmitter")),
		}
		if m.Epoch, err = time.Parse(time.RFC3339Nano, h.str(row, "epoch")); err != nil {
			return nil, fmt.Errorf("%w: line %d column epoch: %w", ErrFormat, line, err)
		}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"pseudorange_m", &m.Pseudorange},
			{"carrier_phase_cycles", &m.CarrierPhase},
			{"frequency_hz", &m.Frequency},
			{"cn0_dbhz", &m.SignalStrength},
			{"elevation_deg", &m.Elevation},
		} {
			if *f.dst, err = h.float(row, line, f.name); err != nil {
				return nil, err
			}
		}
		if m.Azimuth, err = h.optionalFloat(row, line, "azimuth_deg"); err != nil {
			return nil, err
		}

		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFormat, line, err)
		}
		out = append(out, m)
	}

	return out, nil
}

// WriteMeasurements writes ms with the standard header.
func WriteMeasurements(w io.Writer, ms []observation.Measurement) error {
	return writeAll(w, measurementColumns, func(emit func([]string) error) error {
		for _, m := range ms {
			if err := emit([]string{
				string(m.Receiver),
				string(m.Transmitter),
				m.Epoch.UTC().Format(time.RFC3339Nano),
				formatFloat(m.Pseudorange),
				formatFloat(m.CarrierPhase),
				formatFloat(m.Frequency),
				formatFloat(m.SignalStrength),
				formatFloat(m.Elevation),
				formatFloat(m.Azimuth),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
