package simulate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-atmos/gnss/differencing"
	"github.com/cwbudde/algo-atmos/gnss/geometry"
	"github.com/cwbudde/algo-atmos/gnss/observation"
)

const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

func staticScenario(rxBias, txBias float64) Scenario {
	return Scenario{
		Start:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Interval:    time.Minute,
		Epochs:      2,
		ZenithDelay: 2.3,
		Receivers: []Receiver{
			{ID: "A", Position: geometry.Geodetic{LatDeg: 48.1, LonDeg: 11.6, HeightM: 520}, ClockBias: rxBias},
			{ID: "B", Position: geometry.Geodetic{LatDeg: 48.2, LonDeg: 11.4, HeightM: 480}, ClockBias: -2 * rxBias},
		},
		Transmitters: []Transmitter{
			{ID: "G01", Position: &geometry.Geodetic{LatDeg: 60, LonDeg: 10, HeightM: 20_200_000}, ClockBias: txBias, Ambiguity: 7},
			{ID: "G02", Position: &geometry.Geodetic{LatDeg: 30, LonDeg: 40, HeightM: 20_200_000}, ClockBias: -txBias},
			{ID: "G03", Position: &geometry.Geodetic{LatDeg: 45, LonDeg: -20, HeightM: 20_200_000}, ClockBias: 3 * txBias, Ambiguity: -19},
			{ID: "G04", Position: &geometry.Geodetic{LatDeg: -48, LonDeg: -168, HeightM: 20_200_000}},
		},
	}
}

func TestGenerateStatic(t *testing.T) {
	ms, err := Generate(staticScenario(0, 0))
	require.NoError(t, err)

	// G04 sits on the far side of the Earth.
	require.Len(t, ms, 2*2*3)
	for _, m := range ms {
		assert.NotEqual(t, observation.TransmitterID("G04"), m.Transmitter)
		require.NoError(t, m.Validate())
		assert.Greater(t, m.Elevation, 0.0)
		assert.Greater(t, m.Pseudorange, 19_000_000.0)
		assert.Equal(t, FrequencyL1, m.Frequency)
	}
	assert.Equal(t, observation.ReceiverID("A"), ms[0].Receiver)
	assert.Equal(t, observation.TransmitterID("G01"), ms[0].Transmitter)
	assert.True(t, ms[len(ms)-1].Epoch.Equal(time.Date(2024, 6, 1, 0, 1, 0, 0, time.UTC)))
}

func TestGeneratedDoubleDifferencesCancelClockBiases(t *testing.T) {
	clean, err := Generate(staticScenario(0, 0))
	require.NoError(t, err)
	biased, err := Generate(staticScenario(30_000, 1_234.5))
	require.NoError(t, err)

	baselines := []differencing.Baseline{{A: "A", B: "B"}}
	want, err := differencing.ComputeDoubleDifferences(clean, baselines, differencing.WithMinElevation(0))
	require.NoError(t, err)
	got, err := differencing.ComputeDoubleDifferences(biased, baselines, differencing.WithMinElevation(0))
	require.NoError(t, err)

	require.Len(t, got.Differences, len(want.Differences))
	require.NotEmpty(t, got.Differences)
	for i := range want.Differences {
		assert.Equal(t, want.Differences[i].Satellites, got.Differences[i].Satellites)
		if want.Differences[i].Observable == differencing.ObservablePseudorange {
			assert.InDelta(t, want.Differences[i].Value, got.Differences[i].Value, 1e-6)
		}
	}
}

func TestAmbiguityIsConstantAcrossEpochs(t *testing.T) {
	ms, err := Generate(staticScenario(10, 5))
	require.NoError(t, err)

	res, err := differencing.ComputeDoubleDifferences(ms, []differencing.Baseline{{A: "A", B: "B"}},
		differencing.WithMinElevation(0))
	require.NoError(t, err)

	tds := differencing.TripleDifferences(res.Differences)
	require.NotEmpty(t, tds)
	assert.Empty(t, differencing.CycleSlips(tds, 1e-3))
}

func TestGenerateElevationMask(t *testing.T) {
	sc := staticScenario(0, 0)
	all, err := Generate(sc)
	require.NoError(t, err)

	sc.MinElevation = 89
	masked, err := Generate(sc)
	require.NoError(t, err)
	assert.Less(t, len(masked), len(all))
}

func TestGenerateSGP4(t *testing.T) {
	sc := Scenario{
		Start:        time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC),
		Interval:     5 * time.Minute,
		Epochs:       2,
		MinElevation: -90,
		Receivers:    []Receiver{{ID: "R", Position: geometry.Geodetic{LatDeg: 0, LonDeg: 0}}},
		Transmitters: []Transmitter{{ID: "ISS", TLE: []string{issLine1, issLine2}}},
	}

	ms, err := Generate(sc)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.NotEqual(t, ms[0].Pseudorange, ms[1].Pseudorange)
	for _, m := range ms {
		// Between the orbit height and the far side of a 400 km orbit.
		assert.Greater(t, m.Pseudorange, 300_000.0)
		assert.Less(t, m.Pseudorange, 14_000_000.0)
	}
}

func TestLoadFile(t *testing.T) {
	sc, err := LoadFile("testdata/scenario.yaml")
	require.NoError(t, err)

	assert.Equal(t, 3, sc.Epochs)
	assert.Equal(t, 30*time.Second, sc.Interval)
	assert.True(t, sc.Start.Equal(time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)))
	require.Len(t, sc.Receivers, 2)
	require.Len(t, sc.Transmitters, 4)
	assert.Equal(t, FrequencyL1, sc.Transmitters[0].Frequency)
	assert.Equal(t, 48.0, sc.Transmitters[2].SignalStrength)
	assert.Equal(t, defaultSignalStrength, sc.Transmitters[0].SignalStrength)
	require.NotNil(t, sc.Transmitters[2].ECEF)
	assert.Len(t, sc.Transmitters[3].TLE, 2)

	ms, err := Generate(sc)
	require.NoError(t, err)
	assert.NotEmpty(t, ms)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "start: 2024-06-01T00:00:00Z\nbogus: 1\n"},
		{"missing start", "receivers: [{id: A}]\ntransmitters: [{id: G01, ecef_m: [1, 2, 3]}]\n"},
		{"no transmitters", "start: 2024-06-01T00:00:00Z\nreceivers: [{id: A}]\n"},
		{"duplicate receiver", "start: 2024-06-01T00:00:00Z\nreceivers: [{id: A}, {id: A}]\ntransmitters: [{id: G01, ecef_m: [1, 2, 3]}]\n"},
		{"two placements", "start: 2024-06-01T00:00:00Z\nreceivers: [{id: A}]\ntransmitters: [{id: G01, ecef_m: [1, 2, 3], position: {lat_deg: 1}}]\n"},
		{"no placement", "start: 2024-06-01T00:00:00Z\nreceivers: [{id: A}]\ntransmitters: [{id: G01}]\n"},
		{"negative delay", "start: 2024-06-01T00:00:00Z\nzenith_delay_m: -1\nreceivers: [{id: A}]\ntransmitters: [{id: G01, ecef_m: [1, 2, 3]}]\n"},
		{"negative frequency", "start: 2024-06-01T00:00:00Z\nreceivers: [{id: A}]\ntransmitters: [{id: G01, ecef_m: [1, 2, 3], frequency_hz: -1}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestGenerateRejectsMalformedTLE(t *testing.T) {
	sc := staticScenario(0, 0)
	sc.Transmitters = []Transmitter{{ID: "X", TLE: []string{"1 short", "2 short"}}}

	_, err := Generate(sc)
	assert.ErrorIs(t, err, ErrInvalidScenario)

	sc.Transmitters = []Transmitter{{ID: "X", TLE: []string{issLine1, strings.Replace(issLine2, "25544", "25545", 1)}}}
	_, err = Generate(sc)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}
