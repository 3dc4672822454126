package model

// Station represents one broadcast station from the radiko region
// directory.
//
// Stations are unique by ID and immutable once loaded. The directory
// keeps only stations with TimeFree set, since radirec records
// exclusively through the time-free service.
type Station struct {
	// ID is the station identifier used by every API endpoint,
	// e.g. "TBS".
	ID string

	// Name is the human-readable station name.
	Name string

	// AreaID is the broadcast area the station belongs to, e.g. "JP13".
	AreaID string

	// TimeFree reports whether the station supports time-free
	// (on-demand) playback.
	TimeFree bool
}

// StreamCandidate is one acceptable playlist-creation URL for a
// station. Candidates are kept in document order; that order is the
// retry priority of the recording engine.
type StreamCandidate struct {
	// PlaylistURL is the playlist-creation endpoint the segment URLs
	// are built from.
	PlaylistURL string

	// AreaFree reports whether the endpoint serves outside the
	// station's home area (premium entitlement).
	AreaFree bool
}
