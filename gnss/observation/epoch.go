package observation

import (
	"fmt"
	"sort"
	"time"
)

// Epoch holds all measurements sharing one (possibly rounded) timestamp,
// indexed by receiver then transmitter.
type Epoch struct {
	Time time.Time
	obs  map[ReceiverID]map[TransmitterID]Measurement
}

// Get returns the measurement of tx at rx, if present.
func (e Epoch) Get(rx ReceiverID, tx TransmitterID) (Measurement, bool) {
	m, ok := e.obs[rx][tx]
	return m, ok
}

// Transmitters returns the transmitters observed by rx, sorted.
func (e Epoch) Transmitters(rx ReceiverID) []TransmitterID {
	byTx := e.obs[rx]
	out := make([]TransmitterID, 0, len(byTx))
	for tx := range byTx {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Receivers returns the receivers present in the epoch, sorted.
func (e Epoch) Receivers() []ReceiverID {
	out := make([]ReceiverID, 0, len(e.obs))
	for rx := range e.obs {
		out = append(out, rx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Common returns the transmitters observed by both a and b, sorted.
func (e Epoch) Common(a, b ReceiverID) []TransmitterID {
	var out []TransmitterID
	other := e.obs[b]
	for _, tx := range e.Transmitters(a) {
		if _, ok := other[tx]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// Len returns the number of measurements in the epoch.
func (e Epoch) Len() int {
	n := 0
	for _, byTx := range e.obs {
		n += len(byTx)
	}
	return n
}

// GroupByEpoch validates measurements and groups them by timestamp. When
// tolerance > 0, timestamps are rounded to the nearest multiple of tolerance
// first so that receivers sampling a few microseconds apart share an epoch.
//
// Epochs are returned in ascending time. A duplicate (receiver, transmitter,
// epoch) or a transmitter observed on two frequencies within one epoch is an
// error.
func GroupByEpoch(ms []Measurement, tolerance time.Duration) ([]Epoch, error) {
	byTime := make(map[int64]*Epoch)
	freq := make(map[int64]map[TransmitterID]float64)

	for i, m := range ms {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}

		t := m.Epoch.UTC()
		if tolerance > 0 {
			t = t.Round(tolerance)
		}
		key := t.UnixNano()

		ep, ok := byTime[key]
		if !ok {
			ep = &Epoch{Time: t, obs: make(map[ReceiverID]map[TransmitterID]Measurement)}
			byTime[key] = ep
			freq[key] = make(map[TransmitterID]float64)
		}

		if f, seen := freq[key][m.Transmitter]; seen && f != m.Frequency {
			return nil, fmt.Errorf("%w: %s at %s observed on %g Hz and %g Hz",
				ErrInvalidMeasurement, m.Transmitter, t.Format(time.RFC3339Nano), f, m.Frequency)
		}
		freq[key][m.Transmitter] = m.Frequency

		byTx := ep.obs[m.Receiver]
		if byTx == nil {
			byTx = make(map[TransmitterID]Measurement)
			ep.obs[m.Receiver] = byTx
		}
		if _, dup := byTx[m.Transmitter]; dup {
			return nil, fmt.Errorf("%w: duplicate %s/%s at %s",
				ErrInvalidMeasurement, m.Receiver, m.Transmitter, t.Format(time.RFC3339Nano))
		}
		byTx[m.Transmitter] = m
	}

	out := make([]Epoch, 0, len(byTime))
	for _, ep := range byTime {
		out = append(out, *ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	return out, nil
}
