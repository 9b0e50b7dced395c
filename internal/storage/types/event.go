package types

import (
	"database/sql/driver"
	"time"
)

// EventColumns is the fixed projection returned by the extractor, in order.
var EventColumns = []string{
	"date_time",
	"country",
	"idlanguage",
	"region_geoname_id",
	"city_geoname_id",
	"iddevice",
	"idbrowser",
	"idos",
	"idproxy",
	"email_status",
	"idadvertiser",
	"rtb_inventory_id",
	"idcampaign",
	"idvariation",
	"idadvertiser_ad_type",
	"ad_type",
	"idproduct_category",
	"idpublisher",
	"idsite",
	"idcategory",
	"idzone",
	"sub",
	"idtraffic_type",
	"click_status",
	"goal",
}

// Event is a single logged advertising event as stored in the event store.
// The event store is append-only; events are never mutated after ingestion.
type Event struct {
	DateTime time.Time

	// Geography
	Country         string
	IDLanguage      int64
	RegionGeonameID int64
	CityGeonameID   int64

	// Client
	IDDevice    int64
	IDBrowser   int64
	IDOS        int64
	IDProxy     int64
	EmailStatus int64

	// Advertising
	IDAdvertiser       int64
	RTBInventoryID     int64
	IDCampaign         int64
	IDVariation        int64
	IDAdvertiserAdType int64
	AdType             int64
	IDProductCategory  int64
	IDPublisher        int64
	IDSite             int64
	IDCategory         int64
	IDZone             int64
	Sub                string
	IDTrafficType      int64

	// Outcome
	ClickStatus int64
	Goal        int64
}

// ScanTargets returns pointers to every field in EventColumns order.
// The returned slice is meant to be passed straight to sql.Rows.Scan.
func (e *Event) ScanTargets() []any {
	return []any{
		&e.DateTime,
		&e.Country,
		&e.IDLanguage,
		&e.RegionGeonameID,
		&e.CityGeonameID,
		&e.IDDevice,
		&e.IDBrowser,
		&e.IDOS,
		&e.IDProxy,
		&e.EmailStatus,
		&e.IDAdvertiser,
		&e.RTBInventoryID,
		&e.IDCampaign,
		&e.IDVariation,
		&e.IDAdvertiserAdType,
		&e.AdType,
		&e.IDProductCategory,
		&e.IDPublisher,
		&e.IDSite,
		&e.IDCategory,
		&e.IDZone,
		&e.Sub,
		&e.IDTrafficType,
		&e.ClickStatus,
		&e.Goal,
	}
}

// Values returns the field values in EventColumns order, for inserts.
// DateTime is converted to UTC: text-backed drivers compare timestamps as
// strings, so every stored and bound time must share one offset.
func (e *Event) Values() []any {
	return []any{
		e.DateTime.UTC(),
		e.Country,
		e.IDLanguage,
		e.RegionGeonameID,
		e.CityGeonameID,
		e.IDDevice,
		e.IDBrowser,
		e.IDOS,
		e.IDProxy,
		e.EmailStatus,
		e.IDAdvertiser,
		e.RTBInventoryID,
		e.IDCampaign,
		e.IDVariation,
		e.IDAdvertiserAdType,
		e.AdType,
		e.IDProductCategory,
		e.IDPublisher,
		e.IDSite,
		e.IDCategory,
		e.IDZone,
		e.Sub,
		e.IDTrafficType,
		e.ClickStatus,
		e.Goal,
	}
}

// DriverValues is Values typed for driver-level consumers.
func (e *Event) DriverValues() []driver.Value {
	vals := e.Values()
	out := make([]driver.Value, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// InWindow reports whether the event falls inside [start, end).
func (e *Event) InWindow(start, end time.Time) bool {
	return !e.DateTime.Before(start) && e.DateTime.Before(end)
}
