package transform

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

const (
	devicesJSON = `[
		{"id": 1, "name": "Apple iPhone", "device_type": {"id": 2}},
		{"id": 2, "name": "Samsung", "device_type": {"id": 2}},
		{"id": 3, "name": "apple iphone", "device_type": {"id": 3}},
		{"id": 4, "name": "Xiaomi", "device_type": {"id": 2}}
	]`
	productCategoriesJSON = `[
		{"id": 10, "parent": 1},
		{"id": 11, "parent": 1},
		{"id": 1, "parent": null}
	]`
	contentCategoriesJSON = `[
		{"id": 100, "parent": 7}
	]`
)

func writeDictionaries(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		DevicesFile:           devicesJSON,
		ProductCategoriesFile: productCategoriesJSON,
		ContentCategoriesFile: contentCategoriesJSON,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDictionary(t *testing.T) {
	d, err := LoadDictionary(writeDictionaries(t))
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}

	tests := []struct {
		dict string
		key  int64
		want Pair
		ok   bool
	}{
		{DeviceDictionary, 1, Pair{2, 1}, true},
		{DeviceDictionary, 2, Pair{2, 2}, true},
		// Same brand after normalization keeps brand id 1.
		{DeviceDictionary, 3, Pair{3, 1}, true},
		{DeviceDictionary, 4, Pair{2, 3}, true},
		{DeviceDictionary, 99, Pair{}, false},
		{ProductCategoryDictionary, 10, Pair{10, 1}, true},
		{ProductCategoryDictionary, 1, Pair{1, 0}, true},
		{ContentCategoryDictionary, 100, Pair{100, 7}, true},
	}

	for _, tt := range tests {
		got, ok, err := d.Lookup(tt.dict, tt.key)
		if err != nil {
			t.Fatalf("Lookup(%s, %d): %v", tt.dict, tt.key, err)
		}
		if ok != tt.ok || got != tt.want {
			t.Errorf("Lookup(%s, %d) = %v, %v; want %v, %v", tt.dict, tt.key, got, ok, tt.want, tt.ok)
		}
	}

	if d.Brands() != 3 {
		t.Errorf("Brands = %d, want 3", d.Brands())
	}
	if d.Len(ProductCategoryDictionary) != 3 {
		t.Errorf("Len(product) = %d", d.Len(ProductCategoryDictionary))
	}
}

func TestLookupUnknownDictionary(t *testing.T) {
	d := NewDictionary(nil, nil, nil)
	if _, _, err := d.Lookup("browser_dict", 1); !errors.Is(err, errors.ErrUnknownDictionary) {
		t.Errorf("expected ErrUnknownDictionary, got %v", err)
	}
}

func TestLoadDictionaryErrors(t *testing.T) {
	if _, err := LoadDictionary(t.TempDir()); err == nil {
		t.Error("expected error for empty directory")
	}

	dir := writeDictionaries(t)
	if err := os.WriteFile(filepath.Join(dir, DevicesFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadDictionary(dir)
	if err == nil || !strings.Contains(err.Error(), DevicesFile) {
		t.Errorf("expected parse error naming %s, got %v", DevicesFile, err)
	}
}

func TestBrandKey(t *testing.T) {
	if got := BrandKey("Google Pixel 8"); got != "google_pixel_8" {
		t.Errorf("BrandKey = %q", got)
	}
}

func TestTransform(t *testing.T) {
	d, err := LoadDictionary(writeDictionaries(t))
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	tr := New(d)

	// 2024-01-07 is a Sunday.
	ev := types.Event{
		DateTime:           time.Date(2024, 1, 7, 15, 30, 0, 0, time.UTC),
		Country:            "DE",
		IDLanguage:         5,
		RegionGeonameID:    6,
		CityGeonameID:      7,
		IDDevice:           3,
		IDBrowser:          8,
		IDOS:               9,
		IDProxy:            1,
		EmailStatus:        2,
		IDAdvertiser:       11,
		RTBInventoryID:     12,
		IDCampaign:         13,
		IDVariation:        14,
		IDAdvertiserAdType: 15,
		AdType:             16,
		IDProductCategory:  10,
		IDPublisher:        17,
		IDSite:             18,
		IDCategory:         100,
		IDZone:             19,
		Sub:                "abc",
		IDTrafficType:      20,
		ClickStatus:        1,
		Goal:               1,
	}

	rows, err := tr.Transform([]types.Event{ev})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}

	want := types.FeatureRow{
		DateTime:           ev.DateTime,
		Country:            "DE",
		BrowserLanguage:    5,
		Region:             6,
		City:               7,
		IDBrowser:          8,
		OS:                 9,
		Proxy:              1,
		EmailStatus:        2,
		AdvertiserID:       11,
		RTBInventoryID:     12,
		CampaignID:         13,
		VariationID:        14,
		CampaignType:       15,
		ZoneType:           16,
		PublisherID:        17,
		SiteID:             18,
		ZoneID:             19,
		SubID:              "abc",
		TrafficType:        20,
		ClickStatus:        1,
		ConversionStatus:   1,
		DeviceType:         3,
		DeviceBrand:        1,
		AdCategory:         10,
		AdSubCategory:      1,
		ContentCategory:    100,
		ContentSubCategory: 7,
		HourOfDay:          15,
		DayOfWeek:          6,
	}
	if rows[0] != want {
		t.Errorf("row mismatch\ngot  %+v\nwant %+v", rows[0], want)
	}
}

func TestTransformEmpty(t *testing.T) {
	tr := New(NewDictionary(nil, nil, nil))
	rows, err := tr.Transform(nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestTransformLogsMissingKeysOnce(t *testing.T) {
	var buf bytes.Buffer
	logging.InitWriter(&buf, slog.LevelInfo, false)
	t.Cleanup(func() { logging.Init(slog.LevelInfo, false) })

	tr := New(NewDictionary(nil, nil, nil))

	events := make([]types.Event, 50)
	for i := range events {
		events[i] = types.Event{
			DateTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			IDDevice: int64(i % 2), // keys 0 and 1
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := tr.Transform(events)
			if err != nil {
				t.Errorf("Transform: %v", err)
				return
			}
			for _, r := range rows {
				if r.DeviceType != 0 || r.DeviceBrand != 0 {
					t.Errorf("missing key should map to (0,0), got (%d,%d)", r.DeviceType, r.DeviceBrand)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Device keys 0 and 1, product key 0, content key 0.
	if got := tr.MissingKeys(); got != 4 {
		t.Errorf("MissingKeys = %d, want 4", got)
	}
	if got := strings.Count(buf.String(), "missing dictionary entry"); got != 4 {
		t.Errorf("logged %d times, want 4:\n%s", got, buf.String())
	}

	rows, misses := tr.Stats()
	if rows != 200 || misses != 600 {
		t.Errorf("Stats = %d rows, %d misses", rows, misses)
	}
}

type brokenLookup struct{}

func (brokenLookup) Lookup(name string, key int64) (Pair, bool, error) {
	return Pair{}, false, errors.ErrUnknownDictionary
}

func TestTransformLookupError(t *testing.T) {
	tr := New(brokenLookup{})
	_, err := tr.Transform([]types.Event{{}})
	if !errors.Is(err, errors.ErrTransform) {
		t.Errorf("expected ErrTransform, got %v", err)
	}
}
