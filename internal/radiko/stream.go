package radiko

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"

	radihttp "github.com/minolabo/radirec/internal/http"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/radiko/dto"
)

const defaultStreamURL = "https://radiko.jp/v3/station/stream/pc_html5/%s.xml"

// ErrNoStream is returned when a station's descriptor lists no
// time-free endpoint at all.
var ErrNoStream = errors.New("no timefree stream endpoint for station")

// StreamResolver selects playlist-creation URLs from a station's
// stream descriptor.
type StreamResolver struct {
	client *radihttp.Client

	// StreamURL overrides the production endpoint, mainly for tests.
	// It carries one %s verb: the station id.
	StreamURL string
}

// NewStreamResolver creates a StreamResolver using the production
// endpoint.
func NewStreamResolver(client *radihttp.Client) *StreamResolver {
	return &StreamResolver{client: client, StreamURL: defaultStreamURL}
}

// Candidates returns the ordered list of acceptable playlist-creation
// URLs for a recording. The order is the document order and defines
// the engine's retry priority.
//
// An area-free endpoint is wanted only when the session is premium and
// the station's own area differs from the session's home area. When no
// endpoint matches, the first time-free endpoint is used regardless of
// its areafree flag; the right variant is not knowable from the
// descriptor alone, and the unfiltered endpoint often still works.
func (r *StreamResolver) Candidates(ctx context.Context, stationID string, premium bool, homeAreaID, stationAreaID string) ([]model.StreamCandidate, error) {
	body, err := r.client.Get(ctx, fmt.Sprintf(r.StreamURL, stationID))
	if err != nil {
		return nil, fmt.Errorf("fetch stream descriptor: %w", err)
	}

	var doc dto.StreamDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse stream descriptor: %w", err)
	}

	wantAreaFree := premium && homeAreaID != stationAreaID

	var candidates []model.StreamCandidate
	var fallback *model.StreamCandidate
	for _, u := range doc.URLs {
		if !u.IsTimeFree() || u.PlaylistCreateURL == "" {
			continue
		}
		c := model.StreamCandidate{PlaylistURL: u.PlaylistCreateURL, AreaFree: u.IsAreaFree()}
		if fallback == nil {
			fallback = &c
		}
		if c.AreaFree == wantAreaFree {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 && fallback != nil {
		candidates = []model.StreamCandidate{*fallback}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoStream, stationID)
	}
	return candidates, nil
}
