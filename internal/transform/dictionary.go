package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xtxerr/smartbid/internal/errors"
)

// Dictionary names.
const (
	DeviceDictionary          = "device_dict"
	ProductCategoryDictionary = "product_category_dict"
	ContentCategoryDictionary = "content_category_dict"
)

// Dictionary source files inside the dictionary directory.
const (
	DevicesFile           = "devices.json"
	ProductCategoriesFile = "product_categories.json"
	ContentCategoriesFile = "content_categories.json"
)

// Pair is the value a dictionary maps an id to. For devices it is
// (device type, brand); for categories it is (category, parent).
type Pair struct {
	First  int64
	Second int64
}

// Device is an entry of devices.json.
type Device struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	DeviceType DeviceType `json:"device_type"`
}

// DeviceType is the nested device_type object of a device entry.
type DeviceType struct {
	ID int64 `json:"id"`
}

// Category is an entry of product_categories.json or content_categories.json.
type Category struct {
	ID     int64  `json:"id"`
	Parent *int64 `json:"parent"`
}

// Dictionary holds the read-only lookup tables used by the Transformer.
type Dictionary struct {
	tables map[string]map[int64]Pair
	brands map[string]int64
}

// LoadDictionary reads the three dictionary files from dir.
func LoadDictionary(dir string) (*Dictionary, error) {
	var devices []Device
	if err := readJSON(filepath.Join(dir, DevicesFile), &devices); err != nil {
		return nil, err
	}

	var products []Category
	if err := readJSON(filepath.Join(dir, ProductCategoriesFile), &products); err != nil {
		return nil, err
	}

	var contents []Category
	if err := readJSON(filepath.Join(dir, ContentCategoriesFile), &contents); err != nil {
		return nil, err
	}

	return NewDictionary(devices, products, contents), nil
}

// NewDictionary builds a dictionary from decoded entries. Device brands are
// numbered 1, 2, ... in order of first appearance of their normalized name.
func NewDictionary(devices []Device, products, contents []Category) *Dictionary {
	d := &Dictionary{
		tables: map[string]map[int64]Pair{
			DeviceDictionary:          make(map[int64]Pair, len(devices)),
			ProductCategoryDictionary: categoryTable(products),
			ContentCategoryDictionary: categoryTable(contents),
		},
		brands: make(map[string]int64),
	}

	for _, dev := range devices {
		brand := BrandKey(dev.Name)
		id, ok := d.brands[brand]
		if !ok {
			id = int64(len(d.brands) + 1)
			d.brands[brand] = id
		}
		d.tables[DeviceDictionary][dev.ID] = Pair{First: dev.DeviceType.ID, Second: id}
	}

	return d
}

func categoryTable(entries []Category) map[int64]Pair {
	table := make(map[int64]Pair, len(entries))
	for _, c := range entries {
		var parent int64
		if c.Parent != nil {
			parent = *c.Parent
		}
		table[c.ID] = Pair{First: c.ID, Second: parent}
	}
	return table
}

// BrandKey normalizes a device name: lower case with spaces as underscores.
func BrandKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Lookup returns the pair stored under key in the named dictionary.
func (d *Dictionary) Lookup(name string, key int64) (Pair, bool, error) {
	table, ok := d.tables[name]
	if !ok {
		return Pair{}, false, fmt.Errorf("%q: %w", name, errors.ErrUnknownDictionary)
	}
	p, ok := table[key]
	return p, ok, nil
}

// Len returns the number of entries in the named dictionary, or 0.
func (d *Dictionary) Len(name string) int {
	return len(d.tables[name])
}

// Brands returns the number of distinct device brands.
func (d *Dictionary) Brands() int {
	return len(d.brands)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dictionary: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
