package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/violenttestpen/mesa/internal/config"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock(start int64) func() time.Time {
	next := start
	return func() time.Time {
		t := time.Unix(next, 0)
		next++
		return t
	}
}

func runFor(exe string, args ...string) config.Run {
	cfg := config.Default()
	cfg.Executable = exe
	cfg.Arguments = args
	return cfg
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".mesa.data"), WithClock(tickingClock(1700000000)))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRecordRoundTrip(t *testing.T) {
	records := []Record{
		{Timestamp: 1700000000, Executable: "ls", Arguments: "-l", Runs: 3, Mean: 0.0123, StdDev: 0, Note: ""},
		{Timestamp: 1, Executable: "/usr/bin/make", Arguments: "build -j 8", Runs: 10, Mean: 12.5, StdDev: 0.333333333333, Note: "after refactor"},
		{Timestamp: 0, Executable: "true", Arguments: "", Runs: 0, Mean: 0, StdDev: 0, Note: "dry"},
		{Timestamp: 42, Executable: "a b", Arguments: "x  y", Runs: 1, Mean: 1e-9, StdDev: 2.5e-10, Note: "ünïcödé"},
	}
	for _, r := range records {
		got, err := ParseRecord(r.String())
		require.NoError(t, err, r.String())
		assert.Equal(t, r, got)
	}
}

func TestDelimiterInFieldDoesNotRoundTrip(t *testing.T) {
	r := Record{Timestamp: 1, Executable: "sh", Arguments: "-c a|b", Runs: 1, Mean: 1, StdDev: 0}

	_, err := ParseRecord(r.String())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRecordErrors(t *testing.T) {
	tests := []string{
		"",
		"1|ls|-l|3|0.5|0",
		"1|ls|-l|3|0.5|0|note|extra",
		"x|ls|-l|3|0.5|0|",
		"-5|ls|-l|3|0.5|0|",
		"1|ls|-l|three|0.5|0|",
		"1|ls|-l|-1|0.5|0|",
		"1|ls|-l|3|fast|0|",
		"1|ls|-l|3|0.5||",
	}
	for _, line := range tests {
		_, err := ParseRecord(line)
		assert.ErrorIs(t, err, ErrMalformed, "%q", line)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Load())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Search(runFor("ls")))
}

func TestInsertThenSaveWritesHeaderAndRow(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	cfg := runFor("ls", "-l")
	cfg.Runs = 3
	r := s.Insert(cfg, 0.0123, 0.0)
	assert.Equal(t, int64(1700000000), r.Timestamp)

	_, err := os.Stat(s.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist), "insert must not write")

	require.NoError(t, s.Save())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, Header+"\n"+"1700000000|ls|-l|3|0.0123|0|\n", string(data))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.Insert(runFor("build", "--release"), 1.5, 0.1)
	cfg := runFor("test", "./...")
	cfg.Note = "flaky"
	cfg.Runs = 4
	s.Insert(cfg, 0.25, 0.05)
	require.NoError(t, s.Save())

	loaded := NewStore(s.Path())
	require.NoError(t, loaded.Load())
	assert.Equal(t, s.Records(), loaded.Records())
}

func TestSaveOverwritesWholeFile(t *testing.T) {
	s := newTestStore(t)
	s.Insert(runFor("a"), 1, 0)
	s.Insert(runFor("b"), 2, 0)
	require.NoError(t, s.Save())

	// A fresh, unloaded store is the full source of truth for what gets written.
	fresh := NewStore(s.Path())
	fresh.Insert(runFor("c"), 3, 0)
	require.NoError(t, fresh.Save())

	require.NoError(t, s.Load())
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "c", s.Records()[0].Executable)
}

func TestSaveKeepsPermissionsAndLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.Path(), Header+"\n")
	require.NoError(t, os.Chmod(s.Path(), 0o600))

	s.Insert(runFor("ls"), 1, 0)
	require.NoError(t, s.Save())

	fi, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveFailure(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing-dir", ".mesa.data"))
	s.Insert(runFor("ls"), 1, 0)

	err := s.Save()
	require.Error(t, err)

	var saveErr *SaveError
	assert.True(t, errors.As(err, &saveErr))
}

func TestLoadRejectsWrongHeader(t *testing.T) {
	for _, content := range []string{
		"mesa database|version=1\n1|ls|-l|0.5|1|0\n",
		"mesa database|mesa|version=2.0\n",
		Header + " \n",
		"",
	} {
		s := newTestStore(t)
		writeFile(t, s.Path(), content)

		err := s.Load()
		require.Error(t, err, "%q", content)
		assert.ErrorIs(t, err, ErrVersion)

		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, 1, loadErr.Line)
	}
}

func TestLoadMalformedRowFailsEntirely(t *testing.T) {
	s := newTestStore(t)
	content := strings.Join([]string{
		Header,
		"1|ls|-l|3|0.5|0|",
		"2|ls|-l|3|0.5|0",
		"3|ls|-l|3|0.5|0|",
	}, "\n") + "\n"
	writeFile(t, s.Path(), content)

	// Records from an earlier load are not kept either.
	s.Insert(runFor("stale"), 1, 0)

	err := s.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Zero(t, s.Len())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 3, loadErr.Line)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadAcceptsCRLF(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.Path(), Header+"\r\n1|ls|-l|3|0.5|0|note\r\n")

	require.NoError(t, s.Load())
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "note", s.Records()[0].Note)
}

func TestLoadUnreadableFile(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.Load()
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func seedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	s.Insert(runFor("build", "--release"), 1.0, 0)
	s.Insert(runFor("test"), 2.0, 0)
	s.Insert(runFor("build", "--release"), 1.1, 0)
	s.Insert(runFor("build", "--debug"), 0.9, 0)
	s.Insert(runFor("build", "--release"), 1.2, 0)
	return s
}

func TestSearchByExecutable(t *testing.T) {
	s := newTestStore(t)
	s.Insert(runFor("build", "all"), 1.0, 0)
	s.Insert(runFor("test", "all"), 2.0, 0)
	s.Insert(runFor("build", "all"), 3.0, 0)

	cfg := runFor("build", "all")
	cfg.Filter = config.FilterExe
	cfg.Show = 10

	got := s.Search(cfg)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Mean, "newest first")
	assert.Equal(t, 1.0, got[1].Mean)
	for _, r := range got {
		assert.Equal(t, "build", r.Executable)
	}
}

func TestSearchFilters(t *testing.T) {
	s := seedStore(t)
	cfg := runFor("build", "--release")
	cfg.Show = 100

	cfg.Filter = config.FilterAll
	all := s.Search(cfg)
	cfg.Filter = config.FilterExe
	exe := s.Search(cfg)
	cfg.Filter = config.FilterExact
	exact := s.Search(cfg)

	assert.Len(t, all, 5)
	assert.Len(t, exe, 4)
	assert.Len(t, exact, 3)
	assert.LessOrEqual(t, len(exact), len(exe))
	assert.LessOrEqual(t, len(exe), len(all))

	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].Timestamp, all[i].Timestamp)
	}
	assert.Equal(t, []float64{1.2, 1.1, 1.0}, []float64{exact[0].Mean, exact[1].Mean, exact[2].Mean})
}

func TestSearchExactUsesFlattenedArguments(t *testing.T) {
	s := newTestStore(t)
	s.Insert(runFor("echo", "a b"), 1, 0)

	cfg := runFor("echo", "a", "b")
	cfg.Filter = config.FilterExact
	assert.Len(t, s.Search(cfg), 1)
}

func TestSearchCap(t *testing.T) {
	s := seedStore(t)
	for _, filter := range []config.Filter{config.FilterAll, config.FilterExe, config.FilterExact} {
		for show := 0; show <= 6; show++ {
			cfg := runFor("build", "--release")
			cfg.Filter = filter
			cfg.Show = show

			got := s.Search(cfg)
			assert.LessOrEqual(t, len(got), show, "filter=%s show=%d", filter, show)
		}
	}

	cfg := runFor("build", "--release")
	cfg.Filter = config.FilterAll
	cfg.Show = 2
	got := s.Search(cfg)
	require.Len(t, got, 2)
	assert.Equal(t, 1.2, got[0].Mean)
	assert.Equal(t, 0.9, got[1].Mean)
}
