package radiko

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sync"

	radihttp "github.com/minolabo/radirec/internal/http"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/radiko/dto"
)

const defaultRegionURL = "https://radiko.jp/v3/station/region/full.xml"

// ErrStationNotFound is returned when a station id does not appear in
// the directory.
var ErrStationNotFound = errors.New("station not found in directory")

// Directory fetches and caches the full station/region listing,
// filtered to time-free-capable stations.
//
// The cache is read-mostly: Refresh builds a complete new list and
// swaps it in under the lock, so readers never observe a partially
// updated directory.
type Directory struct {
	client *radihttp.Client

	// RegionURL overrides the production endpoint, mainly for tests.
	RegionURL string

	mu       sync.RWMutex
	stations []model.Station
}

// NewDirectory creates a Directory using the production endpoint.
func NewDirectory(client *radihttp.Client) *Directory {
	return &Directory{client: client, RegionURL: defaultRegionURL}
}

// Stations returns the cached station list, fetching it on first use.
func (d *Directory) Stations(ctx context.Context) ([]model.Station, error) {
	d.mu.RLock()
	cached := d.stations
	d.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return d.Refresh(ctx)
}

// Refresh refetches the region directory and atomically replaces the
// cache. Refetching an unchanged upstream document is idempotent.
func (d *Directory) Refresh(ctx context.Context) ([]model.Station, error) {
	body, err := d.client.Get(ctx, d.RegionURL)
	if err != nil {
		return nil, fmt.Errorf("fetch region directory: %w", err)
	}

	var doc dto.RegionDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse region directory: %w", err)
	}

	stations := make([]model.Station, 0, len(doc.Stations))
	for _, s := range doc.Stations {
		if !s.IsTimeFree() {
			continue
		}
		stations = append(stations, model.Station{
			ID:       s.ID,
			Name:     s.Name,
			AreaID:   s.AreaID,
			TimeFree: true,
		})
	}

	d.mu.Lock()
	d.stations = stations
	d.mu.Unlock()
	return stations, nil
}

// AreaIDOf resolves a station id to its broadcast area id, fetching
// the directory first if the cache is empty.
func (d *Directory) AreaIDOf(ctx context.Context, stationID string) (string, error) {
	stations, err := d.Stations(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range stations {
		if s.ID == stationID {
			return s.AreaID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
}
