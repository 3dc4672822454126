package radiko

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	radihttp "github.com/minolabo/radirec/internal/http"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/radiko/dto"
)

const defaultScheduleURL = "https://api.radiko.jp/program/v3/date/%s/area/%s.xml"

// PlaceholderTitle names a recording whose program could not be
// resolved. Title lookup is informational and never aborts a job.
const PlaceholderTitle = "Unknown_Title"

// ErrProgramNotFound is returned when no schedule entry contains the
// requested start time.
var ErrProgramNotFound = errors.New("no program found for start time")

// ProgramInfo is the schedule metadata a job uses for naming.
type ProgramInfo struct {
	// Title is the program title, already sanitized for file names.
	Title string

	// ImageURL is the program artwork URL, empty when the schedule
	// lists none.
	ImageURL string
}

// ProgramResolver resolves program titles from the area's daily
// schedule document.
type ProgramResolver struct {
	client *radihttp.Client

	// ScheduleURL overrides the production endpoint, mainly for
	// tests. It must carry two %s verbs: date, then area id.
	ScheduleURL string
}

// NewProgramResolver creates a ProgramResolver using the production
// endpoint.
func NewProgramResolver(client *radihttp.Client) *ProgramResolver {
	return &ProgramResolver{client: client, ScheduleURL: defaultScheduleURL}
}

// ScheduleDate returns the schedule-document date (YYYYMMDD) for a
// start time. radiko's broadcast day rolls over at 05:00, not
// midnight: a program starting before 05:00 belongs to the previous
// day's schedule.
func ScheduleDate(start time.Time) string {
	if start.Hour() < 5 {
		start = start.AddDate(0, 0, -1)
	}
	return start.Format("20060102")
}

// Resolve returns the title and artwork of the program running on
// stationID at start. areaID must be the station's own broadcast area.
//
// The schedule lists programs as [ft, to) intervals; the entry
// containing start wins. Callers substitute PlaceholderTitle on any
// error.
func (r *ProgramResolver) Resolve(ctx context.Context, stationID, areaID string, start time.Time) (ProgramInfo, error) {
	url := fmt.Sprintf(r.ScheduleURL, ScheduleDate(start), areaID)
	body, err := r.client.Get(ctx, url)
	if err != nil {
		return ProgramInfo{}, fmt.Errorf("fetch schedule: %w", err)
	}

	var doc dto.ScheduleDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return ProgramInfo{}, fmt.Errorf("parse schedule: %w", err)
	}

	ft := model.FormatTimestamp(start)
	for _, station := range doc.Stations {
		if station.ID != stationID {
			continue
		}
		for _, prog := range station.Progs {
			if prog.FT <= ft && ft < prog.To {
				return ProgramInfo{
					Title:    model.SanitizeFileName(prog.Title),
					ImageURL: prog.Img,
				}, nil
			}
		}
	}
	return ProgramInfo{}, fmt.Errorf("%w: station=%s ft=%s", ErrProgramNotFound, stationID, ft)
}
