// Package model defines the core data structures of radirec.
//
// # Station
//
// Station is one entry of the radiko region directory, kept only when
// the station supports time-free playback:
//
//	st := model.Station{ID: "TBS", Name: "TBS RADIO", AreaID: "JP13", TimeFree: true}
//
// # RecordingWindow
//
// RecordingWindow is the normalized (station, from, to) tuple a
// recording job operates on. It can be built from an explicit start
// time and duration, or parsed out of a radiko program URL:
//
//	w, err := model.NewWindow("TBS", "202504010600", 60)
//	w, err = model.ParseProgramURL("https://radiko.jp/#!/ts/TBS/20250401060000")
//
// # Output naming
//
// NameConfig controls how output files are named using placeholders:
//
//	cfg := &model.NameConfig{Template: "{DATE}_{TIME}_{TITLE}"}
//	path := model.OutputPath("/rec", cfg, w, "Morning Show")
//	// "/rec/TBS/20250401_0600_Morning Show.m4a"
//
// Available placeholders: {DATE}, {TIME}, {TITLE}, {STATION}.
package model
