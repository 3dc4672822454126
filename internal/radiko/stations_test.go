package radiko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	radihttp "github.com/minolabo/radirec/internal/http"
)

const regionXML = `<?xml version="1.0" encoding="UTF-8"?>
<region>
  <stations region_id="kanto" region_name="Kanto">
    <station>
      <id>TBS</id>
      <name>TBS RADIO</name>
      <area_id>JP13</area_id>
      <timefree>1</timefree>
    </station>
    <station>
      <id>NORADIO</id>
      <name>Live Only FM</name>
      <area_id>JP13</area_id>
      <timefree>0</timefree>
    </station>
  </stations>
  <stations region_id="kansai" region_name="Kansai">
    <station>
      <id>ABC</id>
      <name>ABC RADIO</name>
      <area_id>JP27</area_id>
      <timefree>1</timefree>
    </station>
  </stations>
</region>`

func newTestDirectory(t *testing.T, body string, hits *int32) *Directory {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &Directory{client: radihttp.NewClient(), RegionURL: srv.URL}
}

func TestDirectory_FiltersTimeFree(t *testing.T) {
	d := newTestDirectory(t, regionXML, nil)

	stations, err := d.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "TBS", stations[0].ID)
	assert.Equal(t, "TBS RADIO", stations[0].Name)
	assert.Equal(t, "JP13", stations[0].AreaID)
	assert.True(t, stations[0].TimeFree)
	assert.Equal(t, "ABC", stations[1].ID)
}

func TestDirectory_AreaIDOf(t *testing.T) {
	d := newTestDirectory(t, regionXML, nil)

	area, err := d.AreaIDOf(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, "JP27", area)

	_, err = d.AreaIDOf(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrStationNotFound)

	// A live-only station is filtered out of the directory.
	_, err = d.AreaIDOf(context.Background(), "NORADIO")
	require.ErrorIs(t, err, ErrStationNotFound)
}

func TestDirectory_CachesAcrossCalls(t *testing.T) {
	var hits int32
	d := newTestDirectory(t, regionXML, &hits)

	_, err := d.Stations(context.Background())
	require.NoError(t, err)
	_, err = d.Stations(context.Background())
	require.NoError(t, err)
	_, err = d.AreaIDOf(context.Background(), "TBS")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "cache should serve repeat reads")
}

func TestDirectory_RefreshIdempotent(t *testing.T) {
	var hits int32
	d := newTestDirectory(t, regionXML, &hits)

	first, err := d.Refresh(context.Background())
	require.NoError(t, err)
	second, err := d.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, first, second, "unchanged upstream document must yield identical cache contents")
}
