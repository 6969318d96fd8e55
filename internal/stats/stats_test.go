package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]int64{}))
	assert.InDelta(t, 6.8, Mean([]int64{1, 1, 1, 1, 30}), 1e-9)
	assert.InDelta(t, 5.5, Mean([]int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), 1e-9)
}

func TestStdDevIsPopulation(t *testing.T) {
	values := []int64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := Mean(values)
	require.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, StdDev(values, mean), 1e-9)
	assert.Equal(t, 0.0, StdDev(nil, 0))
}

func TestStdDevZeroIffAllEqual(t *testing.T) {
	cases := []struct {
		name   string
		values []int64
		zero   bool
	}{
		{name: "single", values: []int64{7}, zero: true},
		{name: "equal", values: []int64{3, 3, 3, 3}, zero: true},
		{name: "large equal", values: []int64{1000003, 1000003, 1000003}, zero: true},
		{name: "one differs", values: []int64{3, 3, 4}, zero: false},
		{name: "spread", values: []int64{0, 10}, zero: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			std := StdDev(tc.values, Mean(tc.values))
			if tc.zero {
				assert.Equal(t, 0.0, std)
			} else {
				assert.Greater(t, std, 0.0)
			}
		})
	}
}

func TestZScore(t *testing.T) {
	assert.InDelta(t, 2.0, ZScore(9, 5, 2), 1e-9)
	assert.InDelta(t, -1.5, ZScore(2, 5, 2), 1e-9)
	assert.True(t, math.IsInf(ZScore(9, 5, 0), 1), "primitive does not guard std == 0")
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard("", ""))
	assert.Equal(t, 0.0, Jaccard("   ...  ", "!!"))
	assert.Equal(t, 0.0, Jaccard("water leak", ""))
	assert.Equal(t, 1.0, Jaccard("Water leak", "water LEAK"))
	assert.Equal(t, 1.0, Jaccard("fan not working", "fan not working"))
	assert.InDelta(t, 0.6, Jaccard("tap is leaking", "tap leaking badly is not"), 1e-9)
	assert.InDelta(t, 1.0/3.0, Jaccard("broken door", "broken window"), 1e-9)
}

func TestJaccardIsSymmetric(t *testing.T) {
	texts := []string{
		"",
		"Fan in room 204 is not working",
		"fan not working in room 204",
		"Water leakage near the wash basin, block A1",
		"wash-basin leaking; water everywhere",
		"senior students ragging in corridor",
	}
	for _, a := range texts {
		for _, b := range texts {
			assert.Equal(t, Jaccard(a, b), Jaccard(b, a), "sim(%q,%q)", a, b)
		}
	}
}

func TestTokenizeSplitsOnNonWordRuns(t *testing.T) {
	tokens := Tokenize("Door--hinge_broken, room#12!!")
	assert.Len(t, tokens, 4)
	for _, want := range []string{"door", "hinge_broken", "room", "12"} {
		assert.Contains(t, tokens, want)
	}
}
