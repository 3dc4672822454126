package record

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minolabo/radirec/internal/ffmpeg"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/radiko"
)

// fakeRunner records every invocation and fails segment fetches on
// demand, keyed by playlist URL and segment index.
type fakeRunner struct {
	failAt      map[string]int // playlist URL -> segment index that fails
	fetchedURLs []string
	headers     []map[string]string
	concatLists []string
	concatMeta  []ffmpeg.Metadata
	failConcat  bool
}

func (f *fakeRunner) FetchSegment(ctx context.Context, streamURL string, headers map[string]string, outPath string) error {
	f.fetchedURLs = append(f.fetchedURLs, streamURL)
	f.headers = append(f.headers, headers)

	u, err := url.Parse(streamURL)
	if err != nil {
		return err
	}
	playlist := u.Scheme + "://" + u.Host + u.Path
	if idx, ok := f.failAt[playlist]; ok {
		// Count segments already fetched for this playlist.
		n := 0
		for _, seen := range f.fetchedURLs[:len(f.fetchedURLs)-1] {
			if strings.HasPrefix(seen, playlist) {
				n++
			}
		}
		if n >= idx {
			return errors.New("simulated fetch failure")
		}
	}
	return os.WriteFile(outPath, []byte("chunk"), 0644)
}

func (f *fakeRunner) Concat(ctx context.Context, listPath, outPath string, meta ffmpeg.Metadata) error {
	data, err := os.ReadFile(listPath)
	if err != nil {
		return err
	}
	f.concatLists = append(f.concatLists, string(data))
	f.concatMeta = append(f.concatMeta, meta)
	if f.failConcat {
		return errors.New("simulated concat failure")
	}
	return os.WriteFile(outPath, []byte("merged"), 0644)
}

func testRecorder(t *testing.T, runner ffmpeg.Runner) *Recorder {
	t.Helper()
	r := NewRecorder(runner, zerolog.Nop(), nil)
	r.tempDir = t.TempDir()
	return r
}

func windowOf(t *testing.T, stationID, start string, d time.Duration) model.RecordingWindow {
	t.Helper()
	from, err := model.ParseTimestamp(start)
	require.NoError(t, err)
	return model.RecordingWindow{StationID: stationID, From: from, To: from.Add(d)}
}

func candidates(urls ...string) []model.StreamCandidate {
	out := make([]model.StreamCandidate, len(urls))
	for i, u := range urls {
		out[i] = model.StreamCandidate{PlaylistURL: u}
	}
	return out
}

var testCreds = radiko.Credentials{AuthToken: "tok", AreaID: "JP13"}

func TestRecord_Success(t *testing.T) {
	runner := &fakeRunner{}
	r := testRecorder(t, runner)

	w := windowOf(t, "TBS", "20250401060000", 11*time.Minute) // 660s -> 300+300+60
	out := filepath.Join(t.TempDir(), "out.m4a")

	err := r.Record(context.Background(), w, testCreds, candidates("https://tf.example/pl"), out, ffmpeg.Metadata{Title: "Show"})
	require.NoError(t, err)

	require.Len(t, runner.fetchedURLs, 3)

	// Segment URL contract: window markers plus segment-scoped range.
	u, err := url.Parse(runner.fetchedURLs[1])
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "TBS", q.Get("station_id"))
	assert.Equal(t, "20250401060000", q.Get("start_at"))
	assert.Equal(t, "20250401060000", q.Get("ft"))
	assert.Equal(t, "20250401060500", q.Get("seek"))
	assert.Equal(t, "20250401061000", q.Get("end_at"))
	assert.Equal(t, "20250401061000", q.Get("to"))
	assert.Equal(t, "300", q.Get("l"))
	assert.Equal(t, "c", q.Get("type"))
	assert.NotEmpty(t, q.Get("lsid"))

	// One lsid shared across all segments of the attempt.
	first := mustQuery(t, runner.fetchedURLs[0], "lsid")
	for _, su := range runner.fetchedURLs[1:] {
		assert.Equal(t, first, mustQuery(t, su, "lsid"))
	}

	// Auth headers attached to every fetch.
	for _, h := range runner.headers {
		assert.Equal(t, "tok", h["X-Radiko-Authtoken"])
		assert.Equal(t, "JP13", h["X-Radiko-AreaId"])
	}

	// Concat list references the chunks in order.
	require.Len(t, runner.concatLists, 1)
	lines := strings.Split(strings.TrimSpace(runner.concatLists[0]), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, "file '"), "line %d: %q", i, line)
		assert.Contains(t, line, fmt.Sprintf("_%d.m4a", i))
	}
	assert.Equal(t, "Show", runner.concatMeta[0].Title)

	// Output exists; temp artifacts are gone.
	assertFileExists(t, out)
	assertNoTempFiles(t, r.tempDir)

	fetched, total := r.Progress()
	assert.Equal(t, 660, total)
	assert.Equal(t, 660, fetched)
}

func TestRecord_FallsBackToNextCandidate(t *testing.T) {
	runner := &fakeRunner{failAt: map[string]int{"https://tf.example/bad": 1}}
	r := testRecorder(t, runner)

	w := windowOf(t, "TBS", "20250401060000", 11*time.Minute)
	out := filepath.Join(t.TempDir(), "out.m4a")

	err := r.Record(context.Background(), w, testCreds,
		candidates("https://tf.example/bad", "https://tf.example/good"), out, ffmpeg.Metadata{})
	require.NoError(t, err)

	// bad: segment 0 ok, segment 1 fails, candidate abandoned;
	// good: all 3 segments fetched from the window start.
	var bad, good int
	for _, su := range runner.fetchedURLs {
		if strings.HasPrefix(su, "https://tf.example/bad") {
			bad++
		} else {
			good++
		}
	}
	assert.Equal(t, 2, bad)
	assert.Equal(t, 3, good)

	// Distinct lsid per candidate attempt.
	assert.NotEqual(t,
		mustQuery(t, runner.fetchedURLs[0], "lsid"),
		mustQuery(t, runner.fetchedURLs[len(runner.fetchedURLs)-1], "lsid"))

	assertFileExists(t, out)
	assertNoTempFiles(t, r.tempDir)
}

func TestRecord_AllCandidatesExhausted(t *testing.T) {
	runner := &fakeRunner{failAt: map[string]int{
		"https://tf.example/a": 0,
		"https://tf.example/b": 2,
	}}
	r := testRecorder(t, runner)

	w := windowOf(t, "TBS", "20250401060000", 20*time.Minute)
	out := filepath.Join(t.TempDir(), "out.m4a")

	err := r.Record(context.Background(), w, testCreds,
		candidates("https://tf.example/a", "https://tf.example/b"), out, ffmpeg.Metadata{})
	require.ErrorIs(t, err, ErrAllCandidatesFailed)

	assertNoFile(t, out)
	assertNoTempFiles(t, r.tempDir)
}

func TestRecord_NoCandidates(t *testing.T) {
	r := testRecorder(t, &fakeRunner{})

	w := windowOf(t, "TBS", "20250401060000", time.Minute)
	err := r.Record(context.Background(), w, testCreds, nil, filepath.Join(t.TempDir(), "out.m4a"), ffmpeg.Metadata{})
	require.ErrorIs(t, err, ErrAllCandidatesFailed)
}

func TestRecord_ConcatFailureLeavesNoOutput(t *testing.T) {
	runner := &fakeRunner{failConcat: true}
	r := testRecorder(t, runner)

	w := windowOf(t, "TBS", "20250401060000", time.Minute)
	out := filepath.Join(t.TempDir(), "out.m4a")

	err := r.Record(context.Background(), w, testCreds, candidates("https://tf.example/pl"), out, ffmpeg.Metadata{})
	require.ErrorIs(t, err, ErrAllCandidatesFailed)

	assertNoFile(t, out)
	assertNoTempFiles(t, r.tempDir)
}

// Cancellation is honored between segments: the loop stops before the
// next fetch and the already fetched chunks are removed.
func TestRecord_CancellationBetweenSegments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	runner := &cancellingRunner{cancel: cancel, after: 1}
	r := testRecorder(t, runner)

	w := windowOf(t, "TBS", "20250401060000", 20*time.Minute)
	out := filepath.Join(t.TempDir(), "out.m4a")

	err := r.Record(ctx, w, testCreds,
		candidates("https://tf.example/a", "https://tf.example/b"), out, ffmpeg.Metadata{})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, runner.fetches, "no further segment may start after cancellation")
	assertNoFile(t, out)
	assertNoTempFiles(t, r.tempDir)
}

// cancellingRunner cancels the context after a number of successful
// fetches.
type cancellingRunner struct {
	cancel  context.CancelFunc
	after   int
	fetches int
}

func (c *cancellingRunner) FetchSegment(ctx context.Context, streamURL string, headers map[string]string, outPath string) error {
	c.fetches++
	if c.fetches >= c.after {
		c.cancel()
	}
	return os.WriteFile(outPath, []byte("chunk"), 0644)
}

func (c *cancellingRunner) Concat(ctx context.Context, listPath, outPath string, meta ffmpeg.Metadata) error {
	return errors.New("concat must not run after cancellation")
}

func mustQuery(t *testing.T, rawURL, key string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	v := u.Query().Get(key)
	require.NotEmpty(t, v, "missing query %s in %s", key, rawURL)
	return v
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.NoError(t, err, "expected file %s", path)
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file %s should not exist", path)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "radirec_"), "leftover temp file: %s", e.Name())
	}
}
