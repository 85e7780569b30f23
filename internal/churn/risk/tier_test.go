package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/churn"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		p    float64
		want Tier
	}{
		{0, TierLow},
		{0.29, TierLow},
		{0.30, TierMedium},
		{0.59, TierMedium},
		{0.60, TierHigh},
		{1, TierHigh},
	}
	for _, tt := range tests {
		got, err := Classify(tt.p)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "p=%v", tt.p)
	}

	_, err := Classify(math.NaN())
	assert.ErrorIs(t, err, churn.ErrInvalidProbability)
	_, err = Classify(1.2)
	assert.ErrorIs(t, err, churn.ErrInvalidProbability)
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.NoError(t, Thresholds{Low: 0.5, High: 1}.Validate())

	assert.Error(t, Thresholds{Low: 0, High: 0.5}.Validate())
	assert.Error(t, Thresholds{Low: 0.6, High: 0.6}.Validate())
	assert.Error(t, Thresholds{Low: 0.7, High: 0.3}.Validate())
	assert.Error(t, Thresholds{Low: 0.3, High: 1.1}.Validate())
}

func TestThresholds_CustomClassify(t *testing.T) {
	th := Thresholds{Low: 0.2, High: 0.5}
	got, err := th.Classify(0.45)
	require.NoError(t, err)
	assert.Equal(t, TierMedium, got)
}

func TestParseTier(t *testing.T) {
	got, err := ParseTier("high")
	require.NoError(t, err)
	assert.Equal(t, TierHigh, got)

	_, err = ParseTier("critical")
	assert.Error(t, err)
}
