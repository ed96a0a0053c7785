package story_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rtg123uk/storyai/internal/story"
)

func TestClassifyPhase(t *testing.T) {
	cases := []struct {
		current, total int
		want           story.Phase
	}{
		{0, 5, story.PhaseIntroduction},
		{1, 5, story.PhaseIntroduction},
		{2, 5, story.PhaseRisingAction},
		{3, 5, story.PhaseClimax},
		{4, 5, story.PhaseFallingAction},
		{5, 5, story.PhaseResolution},
		{2, 10, story.PhaseIntroduction},
		{3, 10, story.PhaseRisingAction},
		{6, 10, story.PhaseClimax},
		{7, 10, story.PhaseFallingAction},
		{9, 10, story.PhaseResolution},
		{3, 15, story.PhaseIntroduction},
		{15, 15, story.PhaseResolution},
		{0, 0, story.PhaseIntroduction},
		{1, 0, story.PhaseResolution},
		{-3, 5, story.PhaseIntroduction},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, story.ClassifyPhase(tc.current, tc.total), "ClassifyPhase(%d, %d)", tc.current, tc.total)
	}
}

func TestClassifyPhase_TotalAndMonotonic(t *testing.T) {
	for total := 1; total <= 30; total++ {
		prev := -1
		for current := 0; current <= total; current++ {
			order := story.ClassifyPhase(current, total).Order()
			if !assert.GreaterOrEqual(t, order, 0, "unknown phase for (%d, %d)", current, total) {
				return
			}
			assert.GreaterOrEqual(t, order, prev, "phase went backwards at (%d, %d)", current, total)
			prev = order
		}
		assert.Equal(t, story.PhaseResolution, story.ClassifyPhase(total, total))
	}
}
