// Package ffmpeg drives the external fetch/mux tool. The recording
// engine only talks to the Runner interface, so the concrete tool is
// swappable (and fakeable in tests) without touching the chunk/retry
// logic.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Runner abstracts the external tool's two jobs: fetching one
// authenticated segment into a local file, and concatenating the
// ordered chunk list into the final output.
type Runner interface {
	FetchSegment(ctx context.Context, streamURL string, headers map[string]string, outPath string) error
	Concat(ctx context.Context, listPath, outPath string, meta Metadata) error
}

// Metadata is written into the final container on the concat pass.
type Metadata struct {
	Title   string
	Artist  string
	Date    string
}

// FFmpeg implements Runner using the ffmpeg command line tool.
type FFmpeg struct {
	Path string
}

// New resolves the ffmpeg binary. An explicit path wins; otherwise a
// copy in the working directory (the portable-install case) is
// preferred over $PATH.
func New(path string) *FFmpeg {
	if path != "" {
		return &FFmpeg{Path: path}
	}

	local := "ffmpeg"
	if runtime.GOOS == "windows" {
		local = "ffmpeg.exe"
	}
	if abs, err := filepath.Abs(local); err == nil {
		if _, err := os.Stat(abs); err == nil {
			return &FFmpeg{Path: abs}
		}
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return &FFmpeg{Path: p}
	}
	return &FFmpeg{Path: "ffmpeg"}
}

// Available checks if the resolved binary is executable.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

// FetchSegment downloads one segment: codec-copied, audio-only, with
// ADTS frames rewritten into MP4 boxes, overwriting outPath. The input
// is flagged non-seekable since the playlist endpoint rejects range
// probing. A non-zero exit status is a segment failure.
func (f *FFmpeg) FetchSegment(ctx context.Context, streamURL string, headers map[string]string, outPath string) error {
	args := segmentArgs(streamURL, headers, outPath)
	return f.run(ctx, args, "segment fetch")
}

// Concat merges the chunk files named by the ordered list at listPath
// into outPath with a stream copy.
func (f *FFmpeg) Concat(ctx context.Context, listPath, outPath string, meta Metadata) error {
	args := concatArgs(listPath, outPath, meta)
	return f.run(ctx, args, "concat")
}

func (f *FFmpeg) run(ctx context.Context, args []string, op string) error {
	cmd := exec.CommandContext(ctx, f.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", op, err, lastLine(stderr.String()))
	}
	return nil
}

func segmentArgs(streamURL string, headers map[string]string, outPath string) []string {
	return []string{
		"-headers", headerBlock(headers),
		"-http_seekable", "0",
		"-seekable", "0",
		"-i", streamURL,
		"-acodec", "copy",
		"-vn",
		"-bsf:a", "aac_adtstoasc",
		"-y",
		outPath,
	}
}

func concatArgs(listPath, outPath string, meta Metadata) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
	}
	if meta.Title != "" {
		args = append(args, "-metadata", "title="+meta.Title)
	}
	if meta.Artist != "" {
		args = append(args, "-metadata", "artist="+meta.Artist)
	}
	if meta.Date != "" {
		args = append(args, "-metadata", "date="+meta.Date)
	}
	return append(args, "-y", outPath)
}

// headerBlock renders headers as the CRLF-joined block ffmpeg's
// -headers flag expects. Keys are sorted for a stable command line.
func headerBlock(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+headers[k])
	}
	return strings.Join(pairs, "\r\n")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
