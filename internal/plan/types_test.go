package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCycleTimeEstimate(t *testing.T) {
	e := NewCycleTimeEstimate(2.0, 1.0, 0.5, 0.5, 0.8, 5.0)

	assert.InDelta(t, 4.0, e.TotalDays, estimateTolerance)
	assert.False(t, e.ExceedsLimit)
	assert.NoError(t, e.Validate())
}

func TestNewCycleTimeEstimateExceedsLimit(t *testing.T) {
	e := NewCycleTimeEstimate(4.0, 3.0, 1.0, 0.5, 0.7, 3.0)

	assert.InDelta(t, 8.5, e.TotalDays, estimateTolerance)
	assert.True(t, e.ExceedsLimit)
}

func TestRecalculateRestoresAdditivity(t *testing.T) {
	e := NewCycleTimeEstimate(2.0, 1.0, 0.5, 0.5, 0.8, 5.0)

	e.DevelopmentDays = 6.0
	e.Recalculate(5.0)

	assert.InDelta(t, 8.0, e.TotalDays, estimateTolerance)
	assert.True(t, e.ExceedsLimit)
	assert.NoError(t, e.Validate())
}

func TestRecalculateZeroBudgetNeverExceeds(t *testing.T) {
	e := NewCycleTimeEstimate(100, 100, 100, 100, 0.5, 0)
	assert.False(t, e.ExceedsLimit)
}

func TestCoverageLevelTestCaseCount(t *testing.T) {
	tests := []struct {
		level CoverageLevel
		want  int
	}{
		{CoverageMinimal, 2},
		{CoverageBasic, 3},
		{CoverageStandard, 4},
		{CoverageComprehensive, 6},
		{CoverageLevel("unknown"), 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.TestCaseCount(), "level %s", tt.level)
	}
}
