package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOnsets_Formulas(t *testing.T) {
	// Two blocks of three trials, hand-computed.
	isi := [][]float64{
		{3.0, 4.0, 5.0},
		{5.0, 4.0, 3.0},
	}
	timeBlock := 18.0 // 3 trials * (4s mean ISI + 2s digit)
	timeInfo := 4.0
	timeDigit := 2.0

	sched, err := GenerateOnsets(isi, timeBlock, timeInfo, timeDigit, 3)
	require.NoError(t, err)

	// Block 0: padding = 4.
	assert.InDelta(t, 4.0, sched.Fixation[0][0], 1e-9)
	assert.InDelta(t, 7.0, sched.Digit[0][0], 1e-9)
	assert.InDelta(t, 9.0, sched.Fixation[0][1], 1e-9) // 3 + 2 + 4
	assert.InDelta(t, 13.0, sched.Digit[0][1], 1e-9)
	assert.InDelta(t, 15.0, sched.Fixation[0][2], 1e-9) // 7 + 4 + 4
	assert.InDelta(t, 20.0, sched.Digit[0][2], 1e-9)

	// Block 1: padding = 4*2 + 18 = 26.
	assert.InDelta(t, 26.0, sched.Fixation[1][0], 1e-9)
	assert.InDelta(t, 31.0, sched.Digit[1][0], 1e-9)
}

func TestGenerateOnsets_DigitEqualsFixationPlusISI(t *testing.T) {
	rng := NewRandSource(3)
	var isiSeconds [][]float64
	for b := 0; b < 8; b++ {
		frames, err := GenerateISI(rng, 12, 180, 300, 30)
		require.NoError(t, err)
		row := make([]float64, len(frames))
		for i, f := range frames {
			row[i] = FramesToSeconds(f, 60)
		}
		isiSeconds = append(isiSeconds, row)
	}

	timeBlock := 12 * (4.0 + 2.0)
	sched, err := GenerateOnsets(isiSeconds, timeBlock, 4.0, 2.0, 12)
	require.NoError(t, err)

	for b := range isiSeconds {
		for k := 0; k < 12; k++ {
			assert.InDelta(t, sched.Fixation[b][k]+isiSeconds[b][k], sched.Digit[b][k], 1e-9,
				"block %d trial %d", b, k)
		}
	}
}

func TestGenerateOnsets_NoOverlap(t *testing.T) {
	rng := NewRandSource(9)
	var isiSeconds [][]float64
	for b := 0; b < 4; b++ {
		frames, err := GenerateISI(rng, 12, 180, 300, 30)
		require.NoError(t, err)
		row := make([]float64, len(frames))
		for i, f := range frames {
			row[i] = FramesToSeconds(f, 60)
		}
		isiSeconds = append(isiSeconds, row)
	}

	timeBlock := 12 * (4.0 + 2.0)
	timeDigit := 2.0
	sched, err := GenerateOnsets(isiSeconds, timeBlock, 4.0, timeDigit, 12)
	require.NoError(t, err)

	prevEnd := 0.0
	for b := range isiSeconds {
		for k := 0; k < 12; k++ {
			assert.GreaterOrEqual(t, sched.Fixation[b][k]+1e-9, prevEnd,
				"block %d trial %d fixation overlaps previous digit slot", b, k)
			assert.Greater(t, sched.Digit[b][k], sched.Fixation[b][k])
			prevEnd = sched.Digit[b][k] + timeDigit
		}
	}
}

func TestGenerateOnsets_LengthMismatch(t *testing.T) {
	_, err := GenerateOnsets([][]float64{{3.0, 4.0}}, 18.0, 4.0, 2.0, 3)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidArgument, CodeOf(err))
}
