package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// FeatureReader reads feature rows from a Parquet file.
type FeatureReader struct {
	file   *os.File
	reader *parquet.GenericReader[FeatureRecord]
	path   string
}

// NewFeatureReader opens a feature Parquet file.
func NewFeatureReader(path string) (*FeatureReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	reader := parquet.NewGenericReader[FeatureRecord](f)

	return &FeatureReader{
		file:   f,
		reader: reader,
		path:   path,
	}, nil
}

// Read reads up to n rows. It returns io.EOF once the file is exhausted.
func (r *FeatureReader) Read(n int) ([]types.FeatureRow, error) {
	records := make([]FeatureRecord, n)
	count, err := r.reader.Read(records)
	if err != nil && !(errors.Is(err, io.EOF) && count > 0) {
		return nil, err
	}

	rows := make([]types.FeatureRow, count)
	for i := 0; i < count; i++ {
		rows[i] = RecordToFeature(&records[i])
	}

	return rows, nil
}

// ReadAll reads all rows from the file.
func (r *FeatureReader) ReadAll() ([]types.FeatureRow, error) {
	numRows := r.reader.NumRows()
	records := make([]FeatureRecord, numRows)

	n, err := r.reader.Read(records)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	rows := make([]types.FeatureRow, n)
	for i := 0; i < n; i++ {
		rows[i] = RecordToFeature(&records[i])
	}

	return rows, nil
}

// NumRows returns the total number of rows in the file.
func (r *FeatureReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Close closes the reader.
func (r *FeatureReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Path returns the file path.
func (r *FeatureReader) Path() string {
	return r.path
}

// ReadFile reads every row of the Parquet file at path.
func ReadFile(path string) ([]types.FeatureRow, error) {
	r, err := NewFeatureReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}

// FileInfo holds information about a Parquet file.
type FileInfo struct {
	Path    string
	Size    int64
	NumRows int64
	NumCols int
}

// GetFileInfo returns information about a Parquet file.
func GetFileInfo(path string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	return &FileInfo{
		Path:    path,
		Size:    stat.Size(),
		NumRows: pf.NumRows(),
		NumCols: len(pf.Schema().Fields()),
	}, nil
}
