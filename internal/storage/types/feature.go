package types

import "time"

// FeatureRow is a transformed event, ready to be written to the dataset.
// Identifiers are renamed to their feature names and the device, product
// category and content category ids are replaced by looked-up pairs.
type FeatureRow struct {
	DateTime time.Time

	Country         string
	BrowserLanguage int64
	Region          int64
	City            int64
	IDBrowser       int64
	OS              int64
	Proxy           int64
	EmailStatus     int64

	AdvertiserID   int64
	RTBInventoryID int64
	CampaignID     int64
	VariationID    int64
	CampaignType   int64
	ZoneType       int64
	PublisherID    int64
	SiteID         int64
	ZoneID         int64
	SubID          string
	TrafficType    int64

	ClickStatus      int64
	ConversionStatus int64

	DeviceType         int64
	DeviceBrand        int64
	AdCategory         int64
	AdSubCategory      int64
	ContentCategory    int64
	ContentSubCategory int64

	HourOfDay int32
	DayOfWeek int32 // Monday=0 ... Sunday=6
}

// DayOfWeekMondayFirst converts time.Weekday (Sunday=0) to Monday=0 numbering.
func DayOfWeekMondayFirst(d time.Weekday) int32 {
	return int32((d + 6) % 7)
}
