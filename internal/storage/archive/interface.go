// Package archive persists the raw and processed data files
// (data/raw/*.csv, data/processed/signals.csv) behind a storage
// interface so the cache can live on disk or in S3.
package archive

import "context"

// Storage defines the interface for data-cache backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Well-known cache paths, mirroring the data/raw and data/processed
// layout of the original research workflow.
const (
	RawPricePath     = "raw/spy.csv"
	RawVIXPath       = "raw/vix.csv"
	RawFearGreedPath = "raw/fear_greed_historical.csv"
	SignalsPath      = "processed/signals.csv"
)

// MissingRaw reports which raw cache paths are absent from the store,
// in a stable order, so commands can fail with a usable message before
// attempting a partial read.
func MissingRaw(ctx context.Context, s Storage) ([]string, error) {
	var missing []string
	for _, p := range []string{RawPricePath, RawVIXPath, RawFearGreedPath} {
		ok, err := s.Exists(ctx, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, p)
		}
	}
	return missing, nil
}
