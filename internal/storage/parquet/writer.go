package parquet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// RowGroupSize is the target number of rows per row group
	RowGroupSize int

	// PageSize is the target page size in bytes
	PageSize int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression:  CompressionZstd,
		RowGroupSize: 100000,
		PageSize:     1024 * 1024, // 1MB
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// String returns the configuration name of the codec.
func (c CompressionType) String() string {
	switch c {
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionGzip:
		return "gzip"
	default:
		return "none"
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// FeatureRecord is a feature row in Parquet format.
type FeatureRecord struct {
	DateTimeMs int64 `parquet:"date_time_ms"`

	Country         string `parquet:"country,dict"`
	BrowserLanguage int64  `parquet:"browser_language"`
	Region          int64  `parquet:"region"`
	City            int64  `parquet:"city"`
	IDBrowser       int64  `parquet:"idbrowser"`
	OS              int64  `parquet:"os"`
	Proxy           int64  `parquet:"proxy"`
	EmailStatus     int64  `parquet:"email_status"`

	AdvertiserID   int64  `parquet:"advertiser_id"`
	RTBInventoryID int64  `parquet:"rtb_inventory_id"`
	CampaignID     int64  `parquet:"campaign_id"`
	VariationID    int64  `parquet:"variation_id"`
	CampaignType   int64  `parquet:"campaign_type"`
	ZoneType       int64  `parquet:"zone_type"`
	PublisherID    int64  `parquet:"publisher_id"`
	SiteID         int64  `parquet:"site_id"`
	ZoneID         int64  `parquet:"zone_id"`
	SubID          string `parquet:"sub_id"`
	TrafficType    int64  `parquet:"traffic_type"`

	ClickStatus      int64 `parquet:"click_status"`
	ConversionStatus int64 `parquet:"conversion_status"`

	DeviceType         int64 `parquet:"device_type"`
	DeviceBrand        int64 `parquet:"device_brand"`
	AdCategory         int64 `parquet:"ad_category"`
	AdSubCategory      int64 `parquet:"ad_sub_category"`
	ContentCategory    int64 `parquet:"content_category"`
	ContentSubCategory int64 `parquet:"content_sub_category"`

	HourOfDay int32 `parquet:"hour_of_day"`
	DayOfWeek int32 `parquet:"day_of_week"`
}

// FeatureToRecord converts a FeatureRow to a FeatureRecord.
func FeatureToRecord(f *types.FeatureRow) FeatureRecord {
	return FeatureRecord{
		DateTimeMs:         f.DateTime.UnixMilli(),
		Country:            f.Country,
		BrowserLanguage:    f.BrowserLanguage,
		Region:             f.Region,
		City:               f.City,
		IDBrowser:          f.IDBrowser,
		OS:                 f.OS,
		Proxy:              f.Proxy,
		EmailStatus:        f.EmailStatus,
		AdvertiserID:       f.AdvertiserID,
		RTBInventoryID:     f.RTBInventoryID,
		CampaignID:         f.CampaignID,
		VariationID:        f.VariationID,
		CampaignType:       f.CampaignType,
		ZoneType:           f.ZoneType,
		PublisherID:        f.PublisherID,
		SiteID:             f.SiteID,
		ZoneID:             f.ZoneID,
		SubID:              f.SubID,
		TrafficType:        f.TrafficType,
		ClickStatus:        f.ClickStatus,
		ConversionStatus:   f.ConversionStatus,
		DeviceType:         f.DeviceType,
		DeviceBrand:        f.DeviceBrand,
		AdCategory:         f.AdCategory,
		AdSubCategory:      f.AdSubCategory,
		ContentCategory:    f.ContentCategory,
		ContentSubCategory: f.ContentSubCategory,
		HourOfDay:          f.HourOfDay,
		DayOfWeek:          f.DayOfWeek,
	}
}

// RecordToFeature converts a FeatureRecord to a FeatureRow.
func RecordToFeature(r *FeatureRecord) types.FeatureRow {
	return types.FeatureRow{
		DateTime:           time.UnixMilli(r.DateTimeMs).UTC(),
		Country:            r.Country,
		BrowserLanguage:    r.BrowserLanguage,
		Region:             r.Region,
		City:               r.City,
		IDBrowser:          r.IDBrowser,
		OS:                 r.OS,
		Proxy:              r.Proxy,
		EmailStatus:        r.EmailStatus,
		AdvertiserID:       r.AdvertiserID,
		RTBInventoryID:     r.RTBInventoryID,
		CampaignID:         r.CampaignID,
		VariationID:        r.VariationID,
		CampaignType:       r.CampaignType,
		ZoneType:           r.ZoneType,
		PublisherID:        r.PublisherID,
		SiteID:             r.SiteID,
		ZoneID:             r.ZoneID,
		SubID:              r.SubID,
		TrafficType:        r.TrafficType,
		ClickStatus:        r.ClickStatus,
		ConversionStatus:   r.ConversionStatus,
		DeviceType:         r.DeviceType,
		DeviceBrand:        r.DeviceBrand,
		AdCategory:         r.AdCategory,
		AdSubCategory:      r.AdSubCategory,
		ContentCategory:    r.ContentCategory,
		ContentSubCategory: r.ContentSubCategory,
		HourOfDay:          r.HourOfDay,
		DayOfWeek:          r.DayOfWeek,
	}
}

// FeatureWriter writes feature rows to a Parquet file.
type FeatureWriter struct {
	mu       sync.Mutex
	path     string
	file     io.WriteCloser
	writer   *parquet.GenericWriter[FeatureRecord]
	rowCount int64
	closed   bool
}

// NewFeatureWriter creates a feature Parquet writer at path, creating parent
// directories as needed.
func NewFeatureWriter(path string, opts Options) (*FeatureWriter, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	w := NewFeatureWriterTo(f, opts)
	w.path = path
	return w, nil
}

// NewFeatureWriterTo creates a feature writer over an open destination.
// Close closes w.
func NewFeatureWriterTo(w io.WriteCloser, opts Options) *FeatureWriter {
	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(opts.Compression)),
	}
	if opts.PageSize > 0 {
		writerOpts = append(writerOpts, parquet.PageBufferSize(opts.PageSize))
	}
	if opts.RowGroupSize > 0 {
		writerOpts = append(writerOpts, parquet.MaxRowsPerRowGroup(int64(opts.RowGroupSize)))
	}

	return &FeatureWriter{
		file:   w,
		writer: parquet.NewGenericWriter[FeatureRecord](w, writerOpts...),
	}
}

// Write writes feature rows to the Parquet file.
func (w *FeatureWriter) Write(rows []types.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	records := make([]FeatureRecord, len(rows))
	for i := range rows {
		records[i] = FeatureToRecord(&rows[i])
	}

	n, err := w.writer.Write(records)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// Close flushes the footer and closes the destination.
func (w *FeatureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close writer: %w", err)
	}

	return w.file.Close()
}

// RowCount returns the number of rows written.
func (w *FeatureWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the file path, or "" for writers over an open destination.
func (w *FeatureWriter) Path() string {
	return w.path
}

// WriteFile writes rows to a new Parquet file at path.
func WriteFile(path string, rows []types.FeatureRow, opts Options) error {
	w, err := NewFeatureWriter(path, opts)
	if err != nil {
		return err
	}
	if err := w.Write(rows); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = fmt.Errorf("parquet writer is closed")
