package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCollectorsIncrementIndependently(t *testing.T) {
	c := New()
	c.ProposalsBuilt.Inc()
	c.ProposalsBuilt.Inc()
	c.SignaturesSubmitted.Inc()

	require.Equal(t, float64(2), counterValue(t, c.ProposalsBuilt))
	require.Equal(t, float64(1), counterValue(t, c.SignaturesSubmitted))
	require.Equal(t, float64(0), counterValue(t, c.RelaySends))
}

func counterValue(t *testing.T, c interface {
	Write(*dto.Metric) error
}) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
