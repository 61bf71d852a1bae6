package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize(exampleFrame(t))

	assert.False(t, s.Empty)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 50, s.MeanAge, 1e-9)
	assert.InDelta(t, 50, s.MedianAge, 1e-9)
	assert.InDelta(t, 6000, s.TotalWorth, 1e-9)
	assert.InDelta(t, 2000, s.MedianWorth, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.SelfMadeShare, 1e-9)
	assert.Greater(t, s.P90Worth, 2000.0)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(FilterByAge(exampleFrame(t), 1000, 2000))

	assert.Equal(t, Summary{Empty: true}, s)
}
