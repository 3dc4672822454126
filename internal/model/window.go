package model

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is the compact local timestamp format used by every
// radiko endpoint (YYYYMMDDHHMMSS).
const TimestampLayout = "20060102150405"

// DefaultURLWindow is the window length assumed when only a program URL
// is available. The URL carries the start time but not the program
// length, so one hour is used as a documented fallback.
const DefaultURLWindow = time.Hour

var (
	// ErrBadProgramURL is returned when a program URL matches neither
	// the #!/ts/ path form nor the sid/t query form.
	ErrBadProgramURL = errors.New("unrecognized program URL")

	// ErrBadTimestamp is returned for start times that are not 12 or
	// 14 digits.
	ErrBadTimestamp = errors.New("timestamp must be YYYYMMDDHHMM or YYYYMMDDHHMMSS")
)

var timestampRe = regexp.MustCompile(`^\d{12}(\d{2})?$`)

// RecordingWindow is the normalized recording request: one station and
// a half-open time range. Immutable after construction; To is always
// after From.
type RecordingWindow struct {
	StationID string
	From      time.Time
	To        time.Time
}

// ParseTimestamp parses a 12- or 14-digit radiko timestamp in local
// time. Missing seconds default to 00.
func ParseTimestamp(s string) (time.Time, error) {
	if !timestampRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	if len(s) == 12 {
		s += "00"
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t, nil
}

// FormatTimestamp renders t in the 14-digit radiko timestamp form.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// NewWindow builds a window from an explicit station, start time and
// duration in minutes.
func NewWindow(stationID, start string, durationMin int) (RecordingWindow, error) {
	if stationID == "" {
		return RecordingWindow{}, errors.New("station id is required")
	}
	if durationMin <= 0 {
		return RecordingWindow{}, fmt.Errorf("duration must be positive, got %d", durationMin)
	}
	from, err := ParseTimestamp(start)
	if err != nil {
		return RecordingWindow{}, err
	}
	return RecordingWindow{
		StationID: stationID,
		From:      from,
		To:        from.Add(time.Duration(durationMin) * time.Minute),
	}, nil
}

// ParseProgramURL extracts a window from a radiko program URL.
//
// Two shapes are recognized:
//
//	https://radiko.jp/#!/ts/<station>/<timestamp>
//	https://radiko.jp/...?sid=<station>&t=<timestamp>
//
// Only the start time is recoverable from a URL, so the window ends
// DefaultURLWindow after it.
func ParseProgramURL(raw string) (RecordingWindow, error) {
	stationID, start, err := splitProgramURL(raw)
	if err != nil {
		return RecordingWindow{}, err
	}
	from, err := ParseTimestamp(start)
	if err != nil {
		return RecordingWindow{}, err
	}
	return RecordingWindow{
		StationID: stationID,
		From:      from,
		To:        from.Add(DefaultURLWindow),
	}, nil
}

func splitProgramURL(raw string) (stationID, start string, err error) {
	if _, rest, found := strings.Cut(raw, "#!/ts/"); found {
		parts := strings.Split(rest, "/")
		if len(parts) < 2 {
			return "", "", fmt.Errorf("%w: %q", ErrBadProgramURL, raw)
		}
		ts, _, _ := strings.Cut(parts[1], "?")
		return parts[0], ts, nil
	}

	u, parseErr := url.Parse(raw)
	if parseErr == nil {
		q := u.Query()
		if q.Get("sid") != "" && q.Get("t") != "" {
			return q.Get("sid"), q.Get("t"), nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrBadProgramURL, raw)
}

// FromTimestamp returns the window start in 14-digit form.
func (w RecordingWindow) FromTimestamp() string {
	return FormatTimestamp(w.From)
}

// ToTimestamp returns the window end in 14-digit form.
func (w RecordingWindow) ToTimestamp() string {
	return FormatTimestamp(w.To)
}

// Seconds returns the total window length in whole seconds.
func (w RecordingWindow) Seconds() int {
	return int(w.To.Sub(w.From) / time.Second)
}
