package radiko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	radihttp "github.com/minolabo/radirec/internal/http"
	"github.com/minolabo/radirec/internal/model"
)

const streamXML = `<?xml version="1.0" encoding="UTF-8"?>
<urls>
  <url areafree="0" timefree="0">
    <playlist_create_url>https://live.example/live0</playlist_create_url>
  </url>
  <url areafree="0" timefree="1">
    <playlist_create_url>https://tf.example/local1</playlist_create_url>
  </url>
  <url areafree="1" timefree="1">
    <playlist_create_url>https://tf.example/areafree1</playlist_create_url>
  </url>
  <url areafree="0" timefree="1">
    <playlist_create_url>https://tf.example/local2</playlist_create_url>
  </url>
</urls>`

func newTestStreamResolver(t *testing.T, body string) *StreamResolver {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &StreamResolver{client: radihttp.NewClient(), StreamURL: srv.URL + "/%s.xml"}
}

func urlsOf(cands []model.StreamCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.PlaylistURL
	}
	return out
}

func TestCandidates_AnonymousWantsLocal(t *testing.T) {
	r := newTestStreamResolver(t, streamXML)

	cands, err := r.Candidates(context.Background(), "TBS", false, "JP13", "JP13")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tf.example/local1", "https://tf.example/local2"}, urlsOf(cands),
		"document order defines retry priority")
}

func TestCandidates_PremiumSameAreaWantsLocal(t *testing.T) {
	r := newTestStreamResolver(t, streamXML)

	cands, err := r.Candidates(context.Background(), "TBS", true, "JP13", "JP13")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tf.example/local1", "https://tf.example/local2"}, urlsOf(cands))
}

func TestCandidates_PremiumOtherAreaWantsAreaFree(t *testing.T) {
	r := newTestStreamResolver(t, streamXML)

	cands, err := r.Candidates(context.Background(), "ABC", true, "JP13", "JP27")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "https://tf.example/areafree1", cands[0].PlaylistURL)
	assert.True(t, cands[0].AreaFree)
}

func TestCandidates_FallbackToFirstTimeFree(t *testing.T) {
	onlyAreaFree := `<urls>
  <url areafree="1" timefree="1">
    <playlist_create_url>https://tf.example/areafree-only</playlist_create_url>
  </url>
</urls>`
	r := newTestStreamResolver(t, onlyAreaFree)

	// Anonymous session wants areafree=0, nothing matches; the first
	// timefree entry is used regardless of its flag.
	cands, err := r.Candidates(context.Background(), "TBS", false, "JP13", "JP13")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "https://tf.example/areafree-only", cands[0].PlaylistURL)
}

func TestCandidates_NoTimeFree(t *testing.T) {
	liveOnly := `<urls>
  <url areafree="0" timefree="0">
    <playlist_create_url>https://live.example/live0</playlist_create_url>
  </url>
</urls>`
	r := newTestStreamResolver(t, liveOnly)

	_, err := r.Candidates(context.Background(), "TBS", false, "JP13", "JP13")
	require.ErrorIs(t, err, ErrNoStream)
}
