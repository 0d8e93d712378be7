package differencing

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-atmos/gnss/observation"
	"github.com/cwbudde/algo-atmos/internal/testutil"
)

var twoReceivers = []rcv{{id: "A"}, {id: "B"}}

var baselineAB = []Baseline{{A: "A", B: "B"}}

func TestTwoReceiversFourSatellites(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	res, err := ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)

	require.Len(t, res.Differences, 6)
	require.Len(t, res.References, 1)
	assert.Equal(t, observation.TransmitterID("G07"), res.References[0].Transmitter)
	assert.Empty(t, res.Gaps)
	assert.Zero(t, res.ExcludedCount())

	var pr, cp int
	wantOthers := []observation.TransmitterID{"G01", "G12", "G19"}
	for i, dd := range res.Differences {
		assert.Equal(t, baselineAB[0], dd.Baseline)
		assert.True(t, dd.Epoch.Equal(epoch0))
		assert.Equal(t, observation.TransmitterID("G07"), dd.Satellites.Reference)
		assert.Equal(t, wantOthers[i%3], dd.Satellites.Other)
		switch dd.Observable {
		case ObservablePseudorange:
			pr++
		case ObservableCarrierPhase:
			cp++
		}
	}
	assert.Equal(t, 3, pr)
	assert.Equal(t, 3, cp)
	assert.Equal(t, ObservablePseudorange, res.Differences[0].Observable)
	assert.Equal(t, ObservableCarrierPhase, res.Differences[5].Observable)
}

func TestDoubleDifferenceFormula(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())
	byKey := make(map[string]observation.Measurement)
	for _, m := range ms {
		byKey[string(m.Receiver)+string(m.Transmitter)] = m
	}

	res, err := ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)

	for _, dd := range res.Differences {
		aO, aR := byKey["A"+string(dd.Satellites.Other)], byKey["A"+string(dd.Satellites.Reference)]
		bO, bR := byKey["B"+string(dd.Satellites.Other)], byKey["B"+string(dd.Satellites.Reference)]

		var want float64
		if dd.Observable == ObservablePseudorange {
			want = (aO.Pseudorange - aR.Pseudorange) - (bO.Pseudorange - bR.Pseudorange)
		} else {
			want = ((aO.CarrierPhase - aR.CarrierPhase) - (bO.CarrierPhase - bR.CarrierPhase)) * 0.25
		}
		assert.InDelta(t, want, dd.Value, 1e-9, "%v %v", dd.Observable, dd.Satellites)
	}
}

func TestClockBiasCancellation(t *testing.T) {
	clean := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	biasedRcv := []rcv{{id: "A", clockBias: 12_345.5}, {id: "B", clockBias: -98_765.25}}
	biasedSats := fourSatellites()
	for i := range biasedSats {
		biasedSats[i].clockBias = float64(i+1) * 3_333.375
	}
	biased := buildMeasurements(epoch0, biasedRcv, biasedSats)

	want, err := ComputeDoubleDifferences(clean, baselineAB)
	require.NoError(t, err)
	got, err := ComputeDoubleDifferences(biased, baselineAB)
	require.NoError(t, err)

	testutil.RequireSliceNearlyEqual(t, valuesOf(got.Differences), valuesOf(want.Differences), 1e-9)
}

func TestReferenceChoiceIsLinearCombination(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	byRef := make(map[observation.TransmitterID]map[SatellitePair]float64)
	for _, s := range fourSatellites() {
		res, err := ComputeDoubleDifferences(ms, baselineAB, WithReference(s.id))
		require.NoError(t, err)
		require.Len(t, res.Differences, 6)
		vals := make(map[SatellitePair]float64)
		for _, dd := range res.Differences {
			if dd.Observable == ObservablePseudorange {
				vals[dd.Satellites] = dd.Value
			}
		}
		byRef[s.id] = vals
	}

	// DD(r, j) − DD(r, k) = DD(k, j) for every reference r and j, k ≠ r.
	sats := fourSatellites()
	for _, r := range sats {
		for _, j := range sats {
			for _, k := range sats {
				if j.id == r.id || k.id == r.id || j.id == k.id {
					continue
				}
				lhs := byRef[r.id][SatellitePair{Reference: r.id, Other: j.id}] -
					byRef[r.id][SatellitePair{Reference: r.id, Other: k.id}]
				rhs := byRef[k.id][SatellitePair{Reference: k.id, Other: j.id}]
				assert.InDelta(t, rhs, lhs, 1e-9, "r=%s j=%s k=%s", r.id, j.id, k.id)
			}
		}
	}
}

func TestElevationMaskExcludesAndCounts(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	res, err := ComputeDoubleDifferences(ms, baselineAB, WithMinElevation(30))
	require.NoError(t, err)

	assert.Len(t, res.Differences, 4)
	require.Equal(t, 1, res.ExcludedCount())
	assert.Equal(t, observation.TransmitterID("G12"), res.Excluded[0].Transmitter)
	assert.Equal(t, 22.0, res.Excluded[0].Elevation)
	for _, dd := range res.Differences {
		assert.NotEqual(t, observation.TransmitterID("G12"), dd.Satellites.Other)
	}
}

func TestBaselineElevationUsesLowerReceiver(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())
	for i := range ms {
		if ms[i].Receiver == "B" && ms[i].Transmitter == "G07" {
			ms[i].Elevation = 5
		}
	}

	res, err := ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)
	require.Equal(t, 1, res.ExcludedCount())
	assert.Equal(t, 5.0, res.Excluded[0].Elevation)
	assert.Equal(t, observation.TransmitterID("G19"), res.References[0].Transmitter)
	assert.Len(t, res.Differences, 4)
}

func TestInsufficientCommonTransmittersIsAGap(t *testing.T) {
	ms := buildMeasurements(epoch0, []rcv{{id: "A"}}, fourSatellites())
	ms = append(ms, buildMeasurements(epoch0, []rcv{{id: "B"}}, fourSatellites()[:1])...)

	res, err := ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, 1, res.Gaps[0].Common)

	res, err = ComputeDoubleDifferences(ms, []Baseline{{A: "A", B: "Z"}})
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, 0, res.Gaps[0].Common)
}

func TestMaskCanCauseGap(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	res, err := ComputeDoubleDifferences(ms, baselineAB, WithMinElevation(60))
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	assert.Equal(t, 3, res.ExcludedCount())
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, 1, res.Gaps[0].Common)
	assert.Empty(t, res.References)
}

func TestReferencePolicies(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	cases := []struct {
		opts []Option
		want observation.TransmitterID
	}{
		{nil, "G07"},
		{[]Option{WithReferencePolicy(ReferenceHighestSignal)}, "G19"},
		{[]Option{WithReference("G12")}, "G12"},
		{[]Option{WithReference("G99")}, "G07"},
	}
	for _, tc := range cases {
		res, err := ComputeDoubleDifferences(ms, baselineAB, tc.opts...)
		require.NoError(t, err)
		require.Len(t, res.References, 1)
		assert.Equal(t, tc.want, res.References[0].Transmitter)
	}
}

func TestReferenceTieBreak(t *testing.T) {
	sats := []sat{
		{id: "G09", elevation: 70, cn0: 45},
		{id: "G03", elevation: 70, cn0: 45},
		{id: "G05", elevation: 70, cn0: 47},
	}
	ms := buildMeasurements(epoch0, twoReceivers, sats)

	res, err := ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)
	assert.Equal(t, observation.TransmitterID("G05"), res.References[0].Transmitter)

	sats[2].cn0 = 45
	ms = buildMeasurements(epoch0, twoReceivers, sats)
	res, err = ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)
	assert.Equal(t, observation.TransmitterID("G03"), res.References[0].Transmitter)
}

func TestEpochsAreIndependentAndOrdered(t *testing.T) {
	epoch1 := epoch0.Add(30 * time.Second)
	ms := append(
		buildMeasurements(epoch1, twoReceivers, fourSatellites()),
		buildMeasurements(epoch0, twoReceivers, fourSatellites()[:3])...,
	)

	res, err := ComputeDoubleDifferences(ms, baselineAB)
	require.NoError(t, err)
	require.Len(t, res.Differences, 4+6)
	for _, dd := range res.Differences[:4] {
		assert.True(t, dd.Epoch.Equal(epoch0))
	}
	for _, dd := range res.Differences[4:] {
		assert.True(t, dd.Epoch.Equal(epoch1))
	}

	single, err := ComputeDoubleDifferences(buildMeasurements(epoch1, twoReceivers, fourSatellites()), baselineAB)
	require.NoError(t, err)
	assert.Equal(t, single.Differences, res.Differences[4:])
}

func TestParallelMatchesSequential(t *testing.T) {
	var rcvs []rcv
	for i := 0; i < 5; i++ {
		rcvs = append(rcvs, rcv{id: observation.ReceiverID(fmt.Sprintf("R%d", i)), clockBias: float64(i) * 7.5})
	}
	var ms []observation.Measurement
	for e := 0; e < 10; e++ {
		ms = append(ms, buildMeasurements(epoch0.Add(time.Duration(e)*time.Second), rcvs, fourSatellites())...)
	}
	baselines := AllBaselines(ms)
	require.Len(t, baselines, 10)

	seq, err := ComputeDoubleDifferences(ms, baselines, WithConcurrency(1))
	require.NoError(t, err)
	par, err := ComputeDoubleDifferences(ms, baselines, WithConcurrency(8))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Len(t, par.Differences, 10*10*6)
}

func TestInvalidInput(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	_, err := ComputeDoubleDifferences(ms, []Baseline{{A: "A", B: "A"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeDoubleDifferences(ms, []Baseline{{A: "A"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeDoubleDifferences(ms, baselineAB, WithReference(""))
	assert.ErrorIs(t, err, ErrInvalidInput)

	mismatched := append([]observation.Measurement(nil), ms...)
	mismatched[0].Frequency = 1227.60e6
	_, err = ComputeDoubleDifferences(mismatched, baselineAB)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, observation.ErrInvalidMeasurement)
}

func TestEmptyInputs(t *testing.T) {
	res, err := ComputeDoubleDifferences(nil, baselineAB)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)

	res, err = ComputeDoubleDifferences(buildMeasurements(epoch0, twoReceivers, fourSatellites()), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
}

func TestParseBaseline(t *testing.T) {
	b, err := ParseBaseline("BRUX:WSRT")
	require.NoError(t, err)
	assert.Equal(t, Baseline{A: "BRUX", B: "WSRT"}, b)
	assert.Equal(t, "BRUX-WSRT", b.String())

	b, err = ParseBaseline(" A - B ")
	require.NoError(t, err)
	assert.Equal(t, Baseline{A: "A", B: "B"}, b)

	for _, bad := range []string{"", "A", "A:", ":B"} {
		_, err := ParseBaseline(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestParseReferencePolicy(t *testing.T) {
	for _, p := range []ReferencePolicy{ReferenceHighestElevation, ReferenceHighestSignal, ReferenceFixed} {
		got, err := ParseReferencePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseReferencePolicy("random")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseObservable(t *testing.T) {
	for _, o := range []Observable{ObservablePseudorange, ObservableCarrierPhase} {
		got, err := ParseObservable(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseObservable("doppler")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSingleDifferences(t *testing.T) {
	rcvs := []rcv{{id: "A"}, {id: "B", clockBias: 12.5}}
	ms := buildMeasurements(epoch0, rcvs, fourSatellites())
	for i := range ms {
		if ms[i].Receiver == "B" && ms[i].Transmitter == "G19" {
			ms[i].Elevation = 18
			ms[i].SignalStrength = 40
		}
	}
	// G03 is only seen by A.
	ms = append(ms, observation.Measurement{
		Receiver: "A", Transmitter: "G03", Epoch: epoch0,
		Pseudorange: 21e6, CarrierPhase: 84e6, Frequency: exactFrequency,
		SignalStrength: 42, Elevation: 40,
	})

	eps, err := observation.GroupByEpoch(ms, 0)
	require.NoError(t, err)
	require.Len(t, eps, 1)

	sds := SingleDifferences(eps[0], Baseline{A: "A", B: "B"})
	require.Len(t, sds, 4)

	sats := fourSatellites()
	for i, sd := range sds {
		s := sats[i]
		require.Equal(t, s.id, sd.Transmitter)
		want := geometricRange(rcvs[0], s) - geometricRange(rcvs[1], s) - 12.5
		assert.InDelta(t, want, sd.Pseudorange, 1e-9, s.id)
		assert.InDelta(t, want, sd.CarrierPhase, 1e-9, s.id)
	}
	assert.InDelta(t, 18.0, sds[3].Elevation, 0)
	assert.InDelta(t, 45.0, sds[3].SignalStrength, 1e-12)
	assert.InDelta(t, 35.0, sds[0].Elevation, 0)
}

func TestAllBaselines(t *testing.T) {
	rcvs := []rcv{{id: "WSRT"}, {id: "BRUX"}, {id: "ONSA"}}
	ms := buildMeasurements(epoch0, rcvs, fourSatellites()[:1])

	got := AllBaselines(ms)
	want := []Baseline{
		{A: "BRUX", B: "ONSA"},
		{A: "BRUX", B: "WSRT"},
		{A: "ONSA", B: "WSRT"},
	}
	assert.Equal(t, want, got)
	assert.Empty(t, AllBaselines(ms[:1]))
}

func TestOutOfRangeOptions(t *testing.T) {
	ms := buildMeasurements(epoch0, twoReceivers, fourSatellites())

	cases := map[string]Option{
		"mask above zenith":  WithMinElevation(120),
		"mask below nadir":   WithMinElevation(-91),
		"mask NaN":           WithMinElevation(math.NaN()),
		"negative tolerance": WithEpochTolerance(-time.Second),
		"empty fixed":        WithReference(""),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := ComputeDoubleDifferences(ms, baselineAB, opt)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, res.Differences)
		})
	}

	res, err := ComputeDoubleDifferences(ms, baselineAB, WithMinElevation(90))
	require.NoError(t, err)
	assert.Len(t, res.Gaps, 1)
}
