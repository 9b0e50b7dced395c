// Package seed generates synthetic advertising events for local event
// stores, so the pipeline can be exercised without production data.
package seed

import (
	"math/rand/v2"
	"time"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

var countries = []string{"NL", "DE", "US", "FR", "BR", "IN", "JP"}

// Options controls event generation.
type Options struct {
	// Start is truncated to the hour.
	Start time.Time

	Hours   int
	PerHour int

	// Seed makes the output reproducible.
	Seed uint64

	// Devices is the number of distinct iddevice values, 1..Devices.
	Devices int

	// ClickRate is the probability of click_status = 1.
	ClickRate float64
}

// DefaultOptions returns options for one day of 1000 events per hour.
func DefaultOptions() Options {
	return Options{
		Start:     time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Hour),
		Hours:     24,
		PerHour:   1000,
		Seed:      1,
		Devices:   50,
		ClickRate: 0.02,
	}
}

// Generate returns Hours*PerHour events spread evenly over each hour.
func Generate(opts Options) ([]types.Event, error) {
	if opts.Hours <= 0 {
		return nil, errors.NewInvalidArgument("hours", opts.Hours, "must be positive")
	}
	if opts.PerHour < 0 {
		return nil, errors.NewInvalidArgument("per-hour", opts.PerHour, "must not be negative")
	}
	if opts.Devices <= 0 {
		opts.Devices = 1
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	start := opts.Start.UTC().Truncate(time.Hour)

	events := make([]types.Event, 0, opts.Hours*opts.PerHour)
	for h := 0; h < opts.Hours; h++ {
		hour := start.Add(time.Duration(h) * time.Hour)
		for i := 0; i < opts.PerHour; i++ {
			offset := time.Duration(i) * time.Hour / time.Duration(opts.PerHour)
			events = append(events, event(rng, hour.Add(offset).Truncate(time.Millisecond), opts))
		}
	}
	return events, nil
}

func event(rng *rand.Rand, ts time.Time, opts Options) types.Event {
	var click int64
	if rng.Float64() < opts.ClickRate {
		click = 1
	}
	return types.Event{
		DateTime:           ts,
		Country:            countries[rng.IntN(len(countries))],
		IDLanguage:         rng.Int64N(20) + 1,
		RegionGeonameID:    rng.Int64N(5000) + 1,
		CityGeonameID:      rng.Int64N(100000) + 1,
		IDDevice:           rng.Int64N(int64(opts.Devices)) + 1,
		IDBrowser:          rng.Int64N(12) + 1,
		IDOS:               rng.Int64N(8) + 1,
		IDProxy:            rng.Int64N(2),
		EmailStatus:        rng.Int64N(3),
		IDAdvertiser:       rng.Int64N(500) + 1,
		RTBInventoryID:     rng.Int64N(10000),
		IDCampaign:         rng.Int64N(5000) + 1,
		IDVariation:        rng.Int64N(20000) + 1,
		IDAdvertiserAdType: rng.Int64N(6) + 1,
		AdType:             rng.Int64N(6) + 1,
		IDProductCategory:  rng.Int64N(40) + 1,
		IDPublisher:        rng.Int64N(2000) + 1,
		IDSite:             rng.Int64N(8000) + 1,
		IDCategory:         rng.Int64N(30) + 1,
		IDZone:             rng.Int64N(30000) + 1,
		Sub:                "sub" + string(rune('a'+rng.IntN(26))),
		IDTrafficType:      rng.Int64N(4) + 1,
		ClickStatus:        click,
		Goal:               rng.Int64N(3),
	}
}
