package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/dump"
)

func newOptions(t *testing.T) *options {
	t.Helper()
	return &options{jobs: 2, skip: make(map[string]bool), cfg: config.NewConfig()}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func statuses(results []*FileTestResult) map[string]string {
	out := make(map[string]string)
	for _, r := range results {
		out[filepath.Base(r.File)] = r.Status
	}
	return out
}

func TestGoldenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := newOptions(t)
	good := writeSource(t, dir, "good.c", "int main() { return 42; }\n")
	bad := writeSource(t, dir, "bad.c", "x = 1 @ 2;\n")
	missing := writeSource(t, dir, "missing.c", "y;\n")

	for _, f := range []string{good, bad} {
		path, err := generateGolden(opts, f)
		require.NoError(t, err)
		assert.FileExists(t, path)
	}

	results := runSuite(opts, []string{good, bad, missing}, nil)
	assert.Equal(t, map[string]string{"good.c": statusPass, "bad.c": statusPass, "missing.c": statusSkip}, statuses(results))
	assert.False(t, hasFailures(results))

	require.NoError(t, os.WriteFile(good, []byte("int main() { return 43; }\n"), 0o644))
	results = runSuite(opts, []string{good}, nil)
	require.Len(t, results, 1)
	assert.Equal(t, statusFail, results[0].Status)
	assert.Contains(t, results[0].Diff, "43")
	assert.True(t, hasFailures(results))
}

func TestShippedCorpus(t *testing.T) {
	files, err := expandGlobPatterns(filepath.Join("..", "..", "tests", "*.c"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	results := runSuite(newOptions(t), files, nil)
	for _, r := range results {
		assert.Equal(t, statusPass, r.Status, "%s: %s\n%s", r.File, r.Message, r.Diff)
	}
}

func TestShippedBadChar(t *testing.T) {
	got, err := tokenizeFile(filepath.Join("..", "..", "tests", "bad_char.c"), config.NewConfig())
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, dump.Message{Pos: 10, Len: 1, Msg: `unrecognized character "@"`}, *got.Error)
	assert.Empty(t, got.Tokens)
}

func TestGoldenDir(t *testing.T) {
	dir := t.TempDir()
	opts := newOptions(t)
	opts.jsonDir = filepath.Join(dir, "golden")
	src := writeSource(t, dir, "a.c", "a;")

	path, err := generateGolden(opts, src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.jsonDir, ".a.c.json"), path)
}

func TestSkipAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	opts := newOptions(t)
	a := writeSource(t, dir, "a.c", "same;")
	b := writeSource(t, dir, "b.c", "same;")
	c := writeSource(t, dir, "c.c", "other;")
	opts.skip[c] = true

	_, err := generateGolden(opts, a)
	require.NoError(t, err)

	results := runSuite(opts, []string{a, b, c}, nil)
	assert.Equal(t, map[string]string{"a.c": statusPass, "b.c": statusSkip, "c.c": statusSkip}, statuses(results))
}

func TestCachedResults(t *testing.T) {
	dir := t.TempDir()
	opts := newOptions(t)
	opts.useCache = true
	src := writeSource(t, dir, "c.c", "int c;")
	_, err := generateGolden(opts, src)
	require.NoError(t, err)

	first := runSuite(opts, []string{src}, nil)
	require.Equal(t, statusPass, first[0].Status)

	report := filepath.Join(dir, "report.json")
	_, err = writeJSONReport(report, first)
	require.NoError(t, err)
	previous, err := loadPreviousResults(report)
	require.NoError(t, err)

	second := runSuite(opts, []string{src}, previous)
	require.Equal(t, statusPass, second[0].Status)
	assert.Contains(t, second[0].Message, "cached")
}

func TestLoadPreviousResults(t *testing.T) {
	dir := t.TempDir()
	prev, err := loadPreviousResults(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.Empty(t, prev)

	broken := writeSource(t, dir, "broken.json", "{")
	_, err = loadPreviousResults(broken)
	assert.Error(t, err)
}

func TestCorruptGolden(t *testing.T) {
	dir := t.TempDir()
	opts := newOptions(t)
	src := writeSource(t, dir, "x.c", "x;")
	writeSource(t, dir, ".x.c.json", "not json")

	results := runSuite(opts, []string{src}, nil)
	assert.Equal(t, statusError, results[0].Status)
}

func TestExpandGlobPatterns(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.c", "")
	writeSource(t, dir, "b.c", "")
	writeSource(t, dir, "c.txt", "")

	files, err := expandGlobPatterns(filepath.Join(dir, "*.c") + " " + filepath.Join(dir, "a.*"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandGlobPatterns("[")
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []*FileTestResult{
		{File: "a.c", Status: statusPass},
		{File: "b.c", Status: statusFail, Message: "Token stream does not match golden file", Diff: "-x\n+y"},
	}, false)
	out := buf.String()
	assert.Contains(t, out, "b.c")
	assert.NotContains(t, out, "a.c")
	assert.Contains(t, out, "1 Passed")
	assert.Contains(t, out, "1 Failed")
}
