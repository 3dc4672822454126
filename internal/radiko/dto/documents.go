// Package dto holds the wire documents of the radiko API: XML for the
// station directory, daily schedule and stream descriptor, JSON for
// the premium login.
package dto

import "encoding/xml"

// RegionDocument mirrors v3/station/region/full.xml.
type RegionDocument struct {
	XMLName  xml.Name        `xml:"region"`
	Stations []RegionStation `xml:"stations>station"`
}

// RegionStation is one station element of the region directory.
type RegionStation struct {
	ID       string `xml:"id"`
	Name     string `xml:"name"`
	AreaID   string `xml:"area_id"`
	TimeFree string `xml:"timefree"`
}

// IsTimeFree reports whether the station is flagged time-free capable.
func (s RegionStation) IsTimeFree() bool {
	return s.TimeFree == "1"
}

// ScheduleDocument mirrors program/v3/date/{date}/area/{area}.xml.
type ScheduleDocument struct {
	XMLName  xml.Name          `xml:"radiko"`
	Stations []ScheduleStation `xml:"stations>station"`
}

// ScheduleStation is one station's program list for the day.
type ScheduleStation struct {
	ID    string `xml:"id,attr"`
	Progs []Prog `xml:"progs>prog"`
}

// Prog is one program entry. FT and To are 14-digit timestamps; a
// program covers the half-open interval [FT, To).
type Prog struct {
	FT    string `xml:"ft,attr"`
	To    string `xml:"to,attr"`
	Title string `xml:"title"`
	Img   string `xml:"img"`
}

// StreamDocument mirrors v3/station/stream/pc_html5/{station}.xml.
type StreamDocument struct {
	XMLName xml.Name    `xml:"urls"`
	URLs    []StreamURL `xml:"url"`
}

// StreamURL is one stream endpoint entry with its restriction flags.
type StreamURL struct {
	TimeFree          string `xml:"timefree,attr"`
	AreaFree          string `xml:"areafree,attr"`
	PlaylistCreateURL string `xml:"playlist_create_url"`
}

// IsTimeFree reports whether the endpoint serves time-free playback.
func (u StreamURL) IsTimeFree() bool {
	return u.TimeFree == "1"
}

// IsAreaFree reports whether the endpoint serves outside the home area.
func (u StreamURL) IsAreaFree() bool {
	return u.AreaFree == "1"
}

// LoginResponse is the JSON body of v4/api/member/login.
type LoginResponse struct {
	RadikoSession string `json:"radiko_session"`
}
