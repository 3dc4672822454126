package record

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/minolabo/radirec/internal/config"
	"github.com/minolabo/radirec/internal/ffmpeg"
	radihttp "github.com/minolabo/radirec/internal/http"
	ioutils "github.com/minolabo/radirec/internal/io"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/radiko"
)

// Input selects what to record: either a program URL, or an explicit
// station/start/duration triple. ProgramURL wins when set.
type Input struct {
	ProgramURL  string
	StationID   string
	Start       string
	DurationMin int
}

// Job sequences one recording end to end: optional login, the auth
// handshake, window and station/area resolution, best-effort title
// lookup, output path construction, candidate selection, and the
// chunked recording itself.
//
// A Job holds no mutable cross-job state; every run derives a fresh
// credentials value, so two jobs in one process cannot poison each
// other's session.
type Job struct {
	settings *config.Settings

	auth      *radiko.AuthSession
	directory *radiko.Directory
	programs  *radiko.ProgramResolver
	streams   *radiko.StreamResolver
	recorder  *Recorder
	client    *radihttp.Client
	images    *ioutils.ImageService
	log       zerolog.Logger

	onProgress func(ProgressEvent)
}

// NewJob creates a Job wired to the production radiko endpoints and
// the resolved ffmpeg binary.
func NewJob(settings *config.Settings, log zerolog.Logger, onProgress func(ProgressEvent)) *Job {
	client := radihttp.NewClient()
	runner := ffmpeg.New(settings.FFmpegPath)
	log.Debug().Str("ffmpeg", runner.Path).Msg("resolved external tool")

	return &Job{
		settings:   settings,
		auth:       radiko.NewAuthSession(client),
		directory:  radiko.NewDirectory(client),
		programs:   radiko.NewProgramResolver(client),
		streams:    radiko.NewStreamResolver(client),
		recorder:   NewRecorder(runner, log, onProgress),
		client:     client,
		images:     ioutils.NewImageService(),
		log:        log,
		onProgress: onProgress,
	}
}

// Progress returns the fetched and total window seconds of the
// running recording attempt.
func (j *Job) Progress() (fetched, total int) {
	return j.recorder.Progress()
}

// ResolveWindow normalizes the input into a recording window without
// starting the job. Input errors surface here, before any network
// traffic.
func (j *Job) ResolveWindow(input Input) (model.RecordingWindow, error) {
	if input.ProgramURL != "" {
		return model.ParseProgramURL(input.ProgramURL)
	}
	return model.NewWindow(input.StationID, input.Start, input.DurationMin)
}

// Run executes the recording and returns the output file path.
func (j *Job) Run(ctx context.Context, input Input) (string, error) {
	w, err := j.ResolveWindow(input)
	if err != nil {
		return "", err
	}
	j.progress(ProgressEvent{
		Message: fmt.Sprintf("Recording %s %s - %s", w.StationID, w.FromTimestamp(), w.ToTimestamp()),
		Level:   LevelInfo,
	})

	// Premium login is best-effort: a failure degrades the session
	// tier, it never aborts the job.
	var session string
	if j.settings.Mail != "" && j.settings.Password != "" {
		session, err = j.auth.Login(ctx, j.settings.Mail, j.settings.Password)
		if err != nil {
			j.log.Debug().Err(err).Msg("premium login failed")
			j.progress(ProgressEvent{Message: "Premium login failed, continuing with normal session", Level: LevelWarning})
			session = ""
		} else {
			j.progress(ProgressEvent{Message: "Premium login OK", Level: LevelVerbose})
		}
	}

	creds, err := j.auth.Authorize(ctx, session)
	if err != nil {
		return "", err
	}
	j.progress(ProgressEvent{Message: "Authorized (area: " + creds.AreaID + ")", Level: LevelInfo})

	stationArea, err := j.directory.AreaIDOf(ctx, w.StationID)
	if err != nil {
		return "", err
	}

	// Title lookup is informational and runs alongside candidate
	// resolution; only the latter can fail the job.
	info := radiko.ProgramInfo{Title: radiko.PlaceholderTitle}
	var candidates []model.StreamCandidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cands, err := j.streams.Candidates(gctx, w.StationID, creds.Premium(), creds.AreaID, stationArea)
		if err != nil {
			return err
		}
		candidates = cands
		return nil
	})
	g.Go(func() error {
		pi, err := j.programs.Resolve(gctx, w.StationID, stationArea, w.From)
		if err != nil {
			j.log.Debug().Err(err).Msg("program lookup failed")
			j.progress(ProgressEvent{Message: "Program title not found, using placeholder", Level: LevelWarning})
			return nil
		}
		info = pi
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	outPath := model.OutputPath(j.settings.OutputDir, j.settings.ToNameConfig(), w, info.Title)
	if err := ioutils.EnsureDir(filepath.Dir(outPath)); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	meta := ffmpeg.Metadata{
		Title:  info.Title,
		Artist: w.StationID,
		Date:   w.FromTimestamp()[:8],
	}
	j.progress(ProgressEvent{Message: fmt.Sprintf("Recording: %s (%s)", info.Title, w.StationID), Level: LevelInfo})

	if err := j.recorder.Record(ctx, w, creds, candidates, outPath, meta); err != nil {
		return "", err
	}

	if j.settings.SaveProgramImage && info.ImageURL != "" {
		j.saveProgramImage(ctx, info.ImageURL, outPath)
	}

	j.progress(ProgressEvent{Message: "Recorded: " + filepath.Base(outPath), Level: LevelSuccess})
	return outPath, nil
}

// saveProgramImage stores the program artwork as a JPEG next to the
// recording. Best-effort: failures are logged and never fatal.
func (j *Job) saveProgramImage(ctx context.Context, imageURL, outPath string) {
	data, err := j.client.Get(ctx, imageURL)
	if err != nil {
		j.log.Debug().Err(err).Msg("program image download failed")
		return
	}

	maxSize := j.settings.ProgramImageMaxSize
	if maxSize > 0 {
		if resized, err := j.images.ResizeImage(ctx, data, maxSize, maxSize); err == nil {
			data = resized
		}
	} else if converted, err := j.images.ConvertToJPEG(ctx, data); err == nil {
		data = converted
	}

	imgPath := strings.TrimSuffix(outPath, model.OutputExt) + ".jpg"
	if err := ioutils.WriteFile(ctx, imgPath, data); err != nil {
		j.log.Debug().Err(err).Msg("program image save failed")
		return
	}
	j.progress(ProgressEvent{Message: "Saved program image: " + filepath.Base(imgPath), Level: LevelVerbose})
}

func (j *Job) progress(event ProgressEvent) {
	if j.onProgress != nil {
		j.onProgress(event)
	}
}
