package model

import (
	"path/filepath"
	"regexp"
	"strings"
)

// OutputExt is the container extension of every recording. The engine
// copies the AAC bitstream into an MP4 box without transcoding, so the
// extension is fixed.
const OutputExt = ".m4a"

// NameConfig holds output file naming settings.
//
// The Template supports placeholders that are replaced with actual
// values:
//   - {DATE} - window start date (YYYYMMDD)
//   - {TIME} - window start time (HHMM)
//   - {TITLE} - program title
//   - {STATION} - station id
//
// Unknown placeholders are left untouched.
type NameConfig struct {
	Template string
}

// OutputFileName computes the output file name (without extension) for
// a window and program title. Substitution is pure; the result is then
// sanitized for the filesystem.
func OutputFileName(cfg *NameConfig, w RecordingWindow, title string) string {
	from := w.FromTimestamp()
	name := cfg.Template
	name = strings.ReplaceAll(name, "{DATE}", from[:8])
	name = strings.ReplaceAll(name, "{TIME}", from[8:12])
	name = strings.ReplaceAll(name, "{TITLE}", title)
	name = strings.ReplaceAll(name, "{STATION}", w.StationID)
	return SanitizeFileName(name)
}

// OutputPath computes the full output path: one directory per station
// id under baseDir, templated file name, fixed extension.
func OutputPath(baseDir string, cfg *NameConfig, w RecordingWindow, title string) string {
	return filepath.Join(baseDir, w.StationID, OutputFileName(cfg, w, title)+OutputExt)
}

var (
	invalidChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots  = regexp.MustCompile(`\.+$`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// SanitizeFileName replaces characters that are invalid in file names
// with underscores, removes trailing dots, and collapses whitespace.
//
// Example:
//
//	SanitizeFileName(`News: 1/2`) // "News_ 1_2"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
