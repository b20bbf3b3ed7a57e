// Package traffic provides the hourly door counts fed to the
// recommendation engine.
package traffic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/cache"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
)

// Source returns the traffic samples of a store between from and to, both inclusive
type Source interface {
	Samples(ctx context.Context, storeCode string, from, to time.Time) ([]models.TrafficSample, error)
}

// Simulator generates plausible, repeatable traffic for stores without counters
type Simulator struct {
	FirstHour int
	LastHour  int
	Peak      float64 // entries at the busiest hour of a weekday
}

// NewSimulator returns a simulator producing samples from 07:00 to 22:00
func NewSimulator() *Simulator {
	return &Simulator{FirstHour: 7, LastHour: 22, Peak: 120}
}

// Samples returns one sample per hour per day. The same store and day
// always yield the same counts.
func (s *Simulator) Samples(ctx context.Context, storeCode string, from, to time.Time) ([]models.TrafficSample, error) {
	var out []models.TrafficSample
	for d := truncateDay(from); !d.After(truncateDay(to)); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := fnv.New64a()
		h.Write([]byte(storeCode + d.Format("2006-01-02")))
		r := rand.New(rand.NewSource(int64(h.Sum64())))

		dayFactor := 1.0
		switch d.Weekday() {
		case time.Saturday:
			dayFactor = 1.4
		case time.Sunday:
			dayFactor = 0.8
		}

		for hour := s.FirstHour; hour <= s.LastHour; hour++ {
			// two peaks, late morning and early evening
			morning := math.Exp(-math.Pow(float64(hour)-12, 2) / 8)
			evening := math.Exp(-math.Pow(float64(hour)-18.5, 2) / 6)
			base := s.Peak * dayFactor * math.Max(morning, evening*1.1)
			noise := 0.85 + r.Float64()*0.3
			out = append(out, models.TrafficSample{
				Date:    d,
				Hour:    fmt.Sprintf("%02d:00", hour),
				Entries: int(math.Round(base * noise)),
			})
		}
	}
	return out, nil
}

// Cached memoises another Source per store and date range
type Cached struct {
	source Source
	cache  *cache.Cache[[]models.TrafficSample]
}

// NewCached wraps source with c
func NewCached(source Source, c *cache.Cache[[]models.TrafficSample]) *Cached {
	return &Cached{source: source, cache: c}
}

// Samples serves from the cache when possible
func (c *Cached) Samples(ctx context.Context, storeCode string, from, to time.Time) ([]models.TrafficSample, error) {
	key := storeCode + "|" + from.Format("2006-01-02") + "|" + to.Format("2006-01-02")
	if samples, ok := c.cache.Get(key); ok {
		return samples, nil
	}
	samples, err := c.source.Samples(ctx, storeCode, from, to)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, samples)
	return samples, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
