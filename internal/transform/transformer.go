// Package transform turns sampled events into feature rows.
//
// Identifier columns are renamed to their feature names. Device, product
// category and content category ids are replaced by pairs looked up in a
// Dictionary, and the event time is split into hour of day and day of week.
package transform

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// Lookuper resolves dictionary keys. *Dictionary implements it.
type Lookuper interface {
	Lookup(name string, key int64) (Pair, bool, error)
}

// Transformer converts events to feature rows. It is safe for concurrent use.
type Transformer struct {
	dict Lookuper

	mu     sync.Mutex
	logged map[string]map[int64]struct{}

	missing atomic.Int64
	rows    atomic.Int64

	log *slog.Logger
}

// New creates a transformer backed by dict.
func New(dict Lookuper) *Transformer {
	return &Transformer{
		dict:   dict,
		logged: make(map[string]map[int64]struct{}),
		log:    logging.Component("transform"),
	}
}

// Transform converts every event. The output has one row per event in the
// same order.
func (t *Transformer) Transform(events []types.Event) ([]types.FeatureRow, error) {
	rows := make([]types.FeatureRow, len(events))
	for i := range events {
		row, err := t.TransformEvent(&events[i])
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	t.rows.Add(int64(len(rows)))
	return rows, nil
}

// TransformEvent converts a single event.
func (t *Transformer) TransformEvent(ev *types.Event) (types.FeatureRow, error) {
	device, err := t.lookup(DeviceDictionary, ev.IDDevice)
	if err != nil {
		return types.FeatureRow{}, err
	}
	product, err := t.lookup(ProductCategoryDictionary, ev.IDProductCategory)
	if err != nil {
		return types.FeatureRow{}, err
	}
	content, err := t.lookup(ContentCategoryDictionary, ev.IDCategory)
	if err != nil {
		return types.FeatureRow{}, err
	}

	ts := ev.DateTime.UTC()

	return types.FeatureRow{
		DateTime: ts,

		Country:         ev.Country,
		BrowserLanguage: ev.IDLanguage,
		Region:          ev.RegionGeonameID,
		City:            ev.CityGeonameID,
		IDBrowser:       ev.IDBrowser,
		OS:              ev.IDOS,
		Proxy:           ev.IDProxy,
		EmailStatus:     ev.EmailStatus,

		AdvertiserID:   ev.IDAdvertiser,
		RTBInventoryID: ev.RTBInventoryID,
		CampaignID:     ev.IDCampaign,
		VariationID:    ev.IDVariation,
		CampaignType:   ev.IDAdvertiserAdType,
		ZoneType:       ev.AdType,
		PublisherID:    ev.IDPublisher,
		SiteID:         ev.IDSite,
		ZoneID:         ev.IDZone,
		SubID:          ev.Sub,
		TrafficType:    ev.IDTrafficType,

		ClickStatus:      ev.ClickStatus,
		ConversionStatus: ev.Goal,

		DeviceType:         device.First,
		DeviceBrand:        device.Second,
		AdCategory:         product.First,
		AdSubCategory:      product.Second,
		ContentCategory:    content.First,
		ContentSubCategory: content.Second,

		HourOfDay: int32(ts.Hour()),
		DayOfWeek: types.DayOfWeekMondayFirst(ts.Weekday()),
	}, nil
}

// lookup maps key through the named dictionary. Missing keys map to the
// zero pair and are logged once per dictionary and key.
func (t *Transformer) lookup(name string, key int64) (Pair, error) {
	p, ok, err := t.dict.Lookup(name, key)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %w", errors.ErrTransform, err)
	}
	if ok {
		return p, nil
	}

	t.missing.Add(1)

	t.mu.Lock()
	seen := t.logged[name]
	if seen == nil {
		seen = make(map[int64]struct{})
		t.logged[name] = seen
	}
	_, already := seen[key]
	if !already {
		seen[key] = struct{}{}
	}
	t.mu.Unlock()

	if !already {
		t.log.Info("missing dictionary entry", "dictionary", name, "key", key)
	}
	return Pair{}, nil
}

// MissingKeys returns how many distinct missing keys have been logged.
func (t *Transformer) MissingKeys() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, seen := range t.logged {
		n += len(seen)
	}
	return n
}

// Stats returns the number of rows transformed and of lookups that missed.
func (t *Transformer) Stats() (rows, misses int64) {
	return t.rows.Load(), t.missing.Load()
}
