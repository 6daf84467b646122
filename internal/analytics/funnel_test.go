package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stageCounts(counts ...uint64) map[string]uint64 {
	m := make(map[string]uint64, len(counts))
	for i, c := range counts {
		m[CanonicalStages[i]] = c
	}
	return m
}

func TestBuildFunnel_ReferenceExample(t *testing.T) {
	result := BuildFunnel(stageCounts(100, 60, 30, 30, 10, 5, 0))

	assert.Equal(t, uint64(100), result.TotalStarted)
	assert.Equal(t, 0.0, result.OverallConversionRate)

	// conversion_confirmed has count 0 and is omitted.
	assert.Len(t, result.Stages, 6)
	for _, s := range result.Stages {
		assert.NotEqual(t, "conversion_confirmed", s.Stage)
	}

	first := result.Stages[0]
	assert.Equal(t, uint64(100), first.Count)
	assert.Equal(t, 100.0, first.PercentageOfStart)
	assert.Equal(t, 0.0, first.DropoffRate)

	second := result.Stages[1]
	assert.Equal(t, 60.0, second.PercentageOfStart)
	assert.Equal(t, 40.0, second.DropoffRate)

	// 30 -> 30 is zero dropoff.
	fourth := result.Stages[3]
	assert.Equal(t, uint64(30), fourth.Count)
	assert.Equal(t, 0.0, fourth.DropoffRate)

	fifth := result.Stages[4]
	assert.Equal(t, uint64(10), fifth.Count)
	assert.InDelta(t, 66.67, fifth.DropoffRate, 0.001)
}

func TestBuildFunnel_NegativeDropoffPreserved(t *testing.T) {
	result := BuildFunnel(stageCounts(100, 50, 80))

	third := result.Stages[2]
	assert.Equal(t, uint64(80), third.Count)
	// 50 -> 80 is a growth, the diagnostic negative rate must survive.
	assert.Equal(t, -60.0, third.DropoffRate)
}

func TestBuildFunnel_EmptyFirstStage(t *testing.T) {
	result := BuildFunnel(stageCounts(0, 10))

	assert.Equal(t, uint64(0), result.TotalStarted)
	assert.Equal(t, 0.0, result.OverallConversionRate)

	assert.Len(t, result.Stages, 1)
	assert.Equal(t, "viewed_property", result.Stages[0].Stage)
	assert.Equal(t, 0.0, result.Stages[0].PercentageOfStart)
	assert.Equal(t, 0.0, result.Stages[0].DropoffRate)
}

func TestBuildFunnel_NoEvents(t *testing.T) {
	result := BuildFunnel(map[string]uint64{})

	assert.Empty(t, result.Stages)
	assert.Equal(t, uint64(0), result.TotalStarted)
	assert.Equal(t, 0.0, result.OverallConversionRate)
}

func TestBuildFunnel_FullConversion(t *testing.T) {
	result := BuildFunnel(stageCounts(10, 10, 10, 10, 10, 10, 10))

	assert.Equal(t, 100.0, result.OverallConversionRate)
	assert.Len(t, result.Stages, 7)
	for _, s := range result.Stages {
		assert.Equal(t, 0.0, s.DropoffRate)
		assert.Equal(t, 100.0, s.PercentageOfStart)
	}
}
