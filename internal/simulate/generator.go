// Package simulate produces synthetic traffic batches for demonstrations and
// tests. The generator mimics the statistical shape of each attack profile;
// it is a fixture, not part of the detection contract.
package simulate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

// baseRatePerMinute is the nominal request volume a multiplier of 1 yields.
const baseRatePerMinute = 100

// Generator emits synthetic observation batches. It owns its random source,
// so a seeded Generator is deterministic; separate Generators are safe to use
// concurrently, a single one is not.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator builds a Generator. A zero seed derives one from the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Generate produces one observation per simulated request over the given
// duration ending now. The per-minute volume is baseRatePerMinute scaled by
// the pattern's intensity profile:
//
//	constant:   flat at intensity
//	escalating: linear ramp from 1 to intensity over the duration
//	pulsing:    1 + intensity*|sin(pi*t/duration)|
//
// Concentrated patterns (syn_flood, concentrated) draw sources from a narrow
// address pool; everything else uses a wide random pool. Sizes follow the
// pattern's packet profile.
func (g *Generator) Generate(pattern string, durationHours int, intensity float64) models.Batch {
	if durationHours <= 0 || intensity <= 0 {
		return nil
	}

	end := g.now().Truncate(time.Minute)
	start := end.Add(-time.Duration(durationHours) * time.Hour)
	totalMinutes := durationHours * 60

	batch := make(models.Batch, 0, totalMinutes*baseRatePerMinute)
	for m := 0; m <= totalMinutes; m++ {
		minuteStart := start.Add(time.Duration(m) * time.Minute)
		hoursIn := float64(m) / 60

		multiplier := intensity
		switch pattern {
		case "escalating":
			multiplier = 1 + (intensity-1)*(hoursIn/float64(durationHours))
		case "pulsing":
			multiplier = 1 + intensity*math.Abs(math.Sin(math.Pi*hoursIn/float64(durationHours)))
		}

		requests := int(baseRatePerMinute * multiplier)
		if requests <= 0 {
			continue
		}
		// Spread the minute's requests evenly so they stay inside their bucket.
		step := time.Minute / time.Duration(requests)
		for i := 0; i < requests; i++ {
			batch = append(batch, models.Observation{
				Timestamp: minuteStart.Add(time.Duration(i) * step),
				SourceID:  g.sourceID(pattern),
				SizeBytes: g.sizeBytes(pattern),
				HasSize:   true,
			})
		}
	}
	return batch
}

func (g *Generator) sourceID(pattern string) string {
	switch pattern {
	case "syn_flood", "concentrated":
		return fmt.Sprintf("192.168.%d.%d", 1+g.rng.Intn(4), 1+g.rng.Intn(9))
	default:
		return fmt.Sprintf("%d.%d.%d.%d",
			1+g.rng.Intn(254), 1+g.rng.Intn(254), 1+g.rng.Intn(254), 1+g.rng.Intn(254))
	}
}

func (g *Generator) sizeBytes(pattern string) int64 {
	switch pattern {
	case "udp_flood":
		return int64(50 + g.rng.Intn(150))
	case "amplification":
		return int64(1000 + g.rng.Intn(4000))
	default:
		return int64(200 + g.rng.Intn(1300))
	}
}
