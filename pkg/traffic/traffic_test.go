package traffic

import (
	"context"
	"testing"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/cache"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_Deterministic(t *testing.T) {
	sim := NewSimulator()
	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	a, err := sim.Samples(context.Background(), "MAD01", from, to)
	require.NoError(t, err)
	b, err := sim.Samples(context.Background(), "MAD01", from, to)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 7*16)
	assert.Equal(t, "07:00", a[0].Hour)
	assert.Equal(t, "22:00", a[15].Hour)
	for _, s := range a {
		assert.GreaterOrEqual(t, s.Entries, 0)
	}

	other, err := sim.Samples(context.Background(), "BCN01", from, to)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestSimulator_EmptyRange(t *testing.T) {
	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	samples, err := NewSimulator().Samples(context.Background(), "MAD01", from, from.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

type countingSource struct {
	calls int
}

func (c *countingSource) Samples(ctx context.Context, storeCode string, from, to time.Time) ([]models.TrafficSample, error) {
	c.calls++
	return []models.TrafficSample{{Date: from, Hour: "10:00", Entries: 10}}, nil
}

func TestCached(t *testing.T) {
	src := &countingSource{}
	c := NewCached(src, cache.New[[]models.TrafficSample]("traffic", time.Minute, 100, nil))
	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s, err := c.Samples(context.Background(), "MAD01", from, from)
		require.NoError(t, err)
		assert.Len(t, s, 1)
	}
	assert.Equal(t, 1, src.calls)

	_, err := c.Samples(context.Background(), "MAD01", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
