package differencing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-atmos/gnss/observation"
)

// ErrInvalidInput reports a caller error that aborts the whole call.
var ErrInvalidInput = errors.New("differencing: invalid input")

// Processor computes double differences with a fixed configuration. It holds
// no state between calls and is safe for concurrent use.
type Processor struct {
	cfg config
}

// NewProcessor creates a processor with the given options.
func NewProcessor(opts ...Option) *Processor {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Processor{cfg: cfg}
}

// ComputeDoubleDifferences is a one-shot computation using a fresh Processor.
func ComputeDoubleDifferences(ms []observation.Measurement, baselines []Baseline, opts ...Option) (Result, error) {
	return NewProcessor(opts...).Compute(ms, baselines)
}

type epochOutput struct {
	diffs    []DoubleDifference
	ref      *Reference
	excluded []Exclusion
	gap      *Gap
}

// Compute forms double differences for every baseline over every epoch found
// in ms.
//
// Output is ordered by baseline (as given), then epoch, then observable
// (pseudorange before carrier phase), then the non-reference transmitter ID.
func (p *Processor) Compute(ms []observation.Measurement, baselines []Baseline) (Result, error) {
	if err := validateBaselines(baselines); err != nil {
		return Result{}, err
	}
	if err := p.cfg.validate(); err != nil {
		return Result{}, err
	}

	epochs, err := observation.GroupByEpoch(ms, p.cfg.epochTolerance)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(baselines) == 0 || len(epochs) == 0 {
		return Result{}, nil
	}

	nE := len(epochs)
	slots := make([]epochOutput, len(baselines)*nE)
	job := func(i int) {
		slots[i] = p.differenceEpoch(epochs[i%nE], baselines[i/nE])
	}

	if p.cfg.concurrency <= 1 || len(slots) < 2 {
		for i := range slots {
			job(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.cfg.concurrency)
		for i := range slots {
			g.Go(func() error {
				job(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	var res Result
	for _, s := range slots {
		res.Differences = append(res.Differences, s.diffs...)
		res.Excluded = append(res.Excluded, s.excluded...)
		if s.ref != nil {
			res.References = append(res.References, *s.ref)
		}
		if s.gap != nil {
			res.Gaps = append(res.Gaps, *s.gap)
		}
	}

	return res, nil
}

func validateBaselines(baselines []Baseline) error {
	for _, b := range baselines {
		if strings.TrimSpace(string(b.A)) == "" || strings.TrimSpace(string(b.B)) == "" {
			return fmt.Errorf("%w: baseline %q has an empty receiver", ErrInvalidInput, b)
		}
		if b.A == b.B {
			return fmt.Errorf("%w: baseline %q differences a receiver with itself", ErrInvalidInput, b)
		}
	}
	return nil
}

func (p *Processor) differenceEpoch(ep observation.Epoch, bl Baseline) epochOutput {
	var out epochOutput
	log := p.cfg.logger.With(zap.Stringer("baseline", bl), zap.Time("epoch", ep.Time))

	var usable []SingleDifference
	for _, sd := range SingleDifferences(ep, bl) {
		if sd.Elevation < p.cfg.minElevation {
			out.excluded = append(out.excluded, Exclusion{
				Baseline:    bl,
				Epoch:       ep.Time,
				Transmitter: sd.Transmitter,
				Elevation:   sd.Elevation,
			})
			continue
		}
		usable = append(usable, sd)
	}

	if len(out.excluded) > 0 {
		log.Debug("transmitters below elevation mask",
			zap.Int("excluded", len(out.excluded)),
			zap.Float64("mask_deg", p.cfg.minElevation))
	}

	if len(usable) < 2 {
		log.Debug("insufficient common transmitters", zap.Int("common", len(usable)))
		out.gap = &Gap{Baseline: bl, Epoch: ep.Time, Common: len(usable)}
		return out
	}

	refIdx, fellBack := selectReference(usable, p.cfg.policy, p.cfg.reference)
	ref := usable[refIdx]
	if fellBack {
		log.Debug("fixed reference unavailable, using highest elevation",
			zap.String("wanted", string(p.cfg.reference)),
			zap.String("using", string(ref.Transmitter)))
	}
	out.ref = &Reference{Baseline: bl, Epoch: ep.Time, Transmitter: ref.Transmitter}

	for _, obs := range []Observable{ObservablePseudorange, ObservableCarrierPhase} {
		for i, sd := range usable {
			if i == refIdx {
				continue
			}
			out.diffs = append(out.diffs, DoubleDifference{
				Baseline:   bl,
				Satellites: SatellitePair{Reference: ref.Transmitter, Other: sd.Transmitter},
				Epoch:      ep.Time,
				Observable: obs,
				Value:      sd.value(obs) - ref.value(obs),
			})
		}
	}

	return out
}

// SingleDifferences returns the between-receiver differences (A − B) for
// every transmitter observed by both receivers of bl, sorted by transmitter.
//
// Carrier phase is differenced in cycles before conversion to metres; both
// receivers share the transmitter's frequency within an epoch.
func SingleDifferences(ep observation.Epoch, bl Baseline) []SingleDifference {
	common := ep.Common(bl.A, bl.B)
	out := make([]SingleDifference, 0, len(common))

	for _, tx := range common {
		a, _ := ep.Get(bl.A, tx)
		b, _ := ep.Get(bl.B, tx)

		el := a.Elevation
		if b.Elevation < el {
			el = b.Elevation
		}

		out = append(out, SingleDifference{
			Baseline:       bl,
			Transmitter:    tx,
			Epoch:          ep.Time,
			Pseudorange:    a.Pseudorange - b.Pseudorange,
			CarrierPhase:   (a.CarrierPhase - b.CarrierPhase) * a.Wavelength(),
			Elevation:      el,
			SignalStrength: (a.SignalStrength + b.SignalStrength) / 2,
		})
	}

	return out
}

// AllBaselines returns every unordered pair of the distinct receivers in ms,
// sorted by (A, B) with A < B.
func AllBaselines(ms []observation.Measurement) []Baseline {
	seen := make(map[observation.ReceiverID]struct{})
	var rx []observation.ReceiverID
	for _, m := range ms {
		if _, ok := seen[m.Receiver]; ok {
			continue
		}
		seen[m.Receiver] = struct{}{}
		rx = append(rx, m.Receiver)
	}
	sort.Slice(rx, func(i, j int) bool { return rx[i] < rx[j] })

	var out []Baseline
	for i := range rx {
		for j := i + 1; j < len(rx); j++ {
			out = append(out, Baseline{A: rx[i], B: rx[j]})
		}
	}
	return out
}
