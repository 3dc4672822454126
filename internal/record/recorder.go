package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minolabo/radirec/internal/ffmpeg"
	ioutils "github.com/minolabo/radirec/internal/io"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/radiko"
)

// ErrAllCandidatesFailed is returned when every stream candidate URL
// failed to deliver the full window.
var ErrAllCandidatesFailed = errors.New("every stream candidate failed")

// Recorder turns a recording window into a single output file: it
// splits the window into bounded segments, drives the external fetch
// tool per segment, abandons a candidate URL on the first segment
// failure, and concatenates a fully fetched candidate's chunks.
//
// Segment fetches are deliberately sequential. Each segment's range
// continues exactly where the previous one ended, and the external
// process blocks the worker for its duration. Cancellation is honored
// between segments only.
type Recorder struct {
	runner  ffmpeg.Runner
	tempDir string
	log     zerolog.Logger

	onProgress func(ProgressEvent)

	fetchedSeconds int32
	totalSeconds   int32
}

// NewRecorder creates a Recorder. Temp chunks go to the system temp
// directory under a random per-job namespace, so concurrent jobs
// cannot collide.
func NewRecorder(runner ffmpeg.Runner, log zerolog.Logger, onProgress func(ProgressEvent)) *Recorder {
	return &Recorder{
		runner:     runner,
		tempDir:    os.TempDir(),
		log:        log,
		onProgress: onProgress,
	}
}

// Progress returns the fetched and total window seconds of the
// running attempt. Safe for concurrent use.
func (r *Recorder) Progress() (fetched, total int) {
	return int(atomic.LoadInt32(&r.fetchedSeconds)), int(atomic.LoadInt32(&r.totalSeconds))
}

// Record fetches the window through the first fully working candidate
// and concatenates its chunks into outPath.
//
// Post-conditions on every exit path: all per-chunk temp files and the
// list file are removed; outPath exists only on success.
func (r *Recorder) Record(ctx context.Context, w model.RecordingWindow, creds radiko.Credentials, candidates []model.StreamCandidate, outPath string, meta ffmpeg.Metadata) error {
	total := w.Seconds()
	atomic.StoreInt32(&r.totalSeconds, int32(total))
	atomic.StoreInt32(&r.fetchedSeconds, 0)

	segs := planSegments(total)
	tmpBase := filepath.Join(r.tempDir, "radirec_"+uuid.NewString())
	listPath := tmpBase + "_list.txt"

	headers := map[string]string{
		"X-Radiko-Authtoken": creds.AuthToken,
		"X-Radiko-AreaId":    creds.AreaID,
	}

	var lastErr error
	for _, cand := range candidates {
		r.progress(ProgressEvent{Message: "Using stream endpoint: " + cand.PlaylistURL, Level: LevelVerbose})
		r.log.Debug().Str("playlist_url", cand.PlaylistURL).Bool("areafree", cand.AreaFree).Msg("starting candidate attempt")

		chunks, err := r.fetchCandidate(ctx, w, cand, segs, headers, tmpBase)
		if err != nil {
			// The candidate is abandoned wholesale: all of its chunks
			// go, and the next URL starts from the window beginning.
			ioutils.RemoveAll(chunks...)
			atomic.StoreInt32(&r.fetchedSeconds, 0)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			r.log.Debug().Err(err).Msg("candidate attempt failed")
			r.progress(ProgressEvent{Message: fmt.Sprintf("Stream endpoint failed (%v), trying next", err), Level: LevelWarning})
			continue
		}

		r.progress(ProgressEvent{Message: "Merging chunks...", Level: LevelInfo})
		err = r.concat(ctx, chunks, listPath, outPath, meta)
		ioutils.RemoveAll(chunks...)
		ioutils.RemoveAll(listPath)
		if err != nil {
			// Leave no partial output behind.
			ioutils.RemoveAll(outPath)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			r.progress(ProgressEvent{Message: fmt.Sprintf("Merge failed (%v), trying next endpoint", err), Level: LevelWarning})
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %w", ErrAllCandidatesFailed, lastErr)
	}
	return ErrAllCandidatesFailed
}

func (r *Recorder) fetchCandidate(ctx context.Context, w model.RecordingWindow, cand model.StreamCandidate, segs []segment, headers map[string]string, tmpBase string) ([]string, error) {
	// One random session id groups all segments of one continuous
	// playback attempt; the server correlates the segment requests
	// through it.
	lsid := strings.ReplaceAll(uuid.NewString(), "-", "")

	var chunks []string
	for i, seg := range segs {
		// Cooperative cancellation point: never mid-segment.
		if err := ctx.Err(); err != nil {
			return chunks, err
		}

		segStart := w.From.Add(time.Duration(seg.offset) * time.Second)
		segEnd := segStart.Add(time.Duration(seg.length) * time.Second)
		chunkPath := fmt.Sprintf("%s_%d%s", tmpBase, i, model.OutputExt)
		streamURL := segmentURL(cand.PlaylistURL, w, segStart, segEnd, seg.length, lsid)

		if total := w.Seconds(); total > 0 {
			r.progress(ProgressEvent{
				Message: fmt.Sprintf("Downloading... (%d%%)", seg.offset*100/total),
				Level:   LevelInfo,
			})
		}
		r.log.Debug().Int("chunk", i).Str("seek", model.FormatTimestamp(segStart)).Int("length", seg.length).Msg("fetching segment")

		if err := r.runner.FetchSegment(ctx, streamURL, headers, chunkPath); err != nil {
			return chunks, fmt.Errorf("segment %d: %w", i, err)
		}
		chunks = append(chunks, chunkPath)
		atomic.AddInt32(&r.fetchedSeconds, int32(seg.length))
	}
	return chunks, nil
}

func (r *Recorder) concat(ctx context.Context, chunks []string, listPath, outPath string, meta ffmpeg.Metadata) error {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("file '")
		b.WriteString(filepath.ToSlash(c))
		b.WriteString("'\n")
	}
	if err := ioutils.WriteFile(ctx, listPath, []byte(b.String())); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return r.runner.Concat(ctx, listPath, outPath, meta)
}

// segmentURL builds the segment-scoped playlist URL. start_at/ft carry
// the whole window's start; seek/end_at/to scope this segment.
func segmentURL(playlistURL string, w model.RecordingWindow, segStart, segEnd time.Time, length int, lsid string) string {
	from := w.FromTimestamp()
	seek := model.FormatTimestamp(segStart)
	end := model.FormatTimestamp(segEnd)
	return fmt.Sprintf("%s?station_id=%s&start_at=%s&ft=%s&seek=%s&end_at=%s&to=%s&l=%d&lsid=%s&type=c",
		playlistURL, w.StationID, from, from, seek, end, end, length, lsid)
}

func (r *Recorder) progress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}
