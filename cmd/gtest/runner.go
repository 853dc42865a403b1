package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/encoding/json"

	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/dump"
	"github.com/xplshn/rcc/pkg/lexer"
)

const (
	statusPass  = "PASS"
	statusFail  = "FAIL"
	statusSkip  = "SKIP"
	statusError = "ERROR"
)

type FileTestResult struct {
	File       string `json:"file"`
	Status     string `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message    string `json:"message,omitempty"`
	Diff       string `json:"diff,omitempty"`
	SourceHash string `json:"source_hash,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

type options struct {
	jsonDir  string
	jobs     int
	useCache bool
	skip     map[string]bool
	cfg      *config.Config
}

func (o *options) goldenPath(sourceFile string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if o.jsonDir != "" {
		return filepath.Join(o.jsonDir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

// tokenizeFile dumps path under its base name so goldens do not depend on where
// the corpus is checked out.
func tokenizeFile(path string, cfg *config.Config) (dump.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return dump.File{}, fmt.Errorf("could not read file '%s': %w", path, err)
	}
	src := string(content)
	l := lexer.NewLexer(src, 0, cfg)
	toks, lexErr := l.Tokenize()
	return dump.Build(filepath.Base(path), src, toks, l.Warnings(), lexErr), nil
}

func generateGolden(opts *options, sourceFile string) (string, error) {
	got, err := tokenizeFile(sourceFile, opts.cfg)
	if err != nil {
		return "", err
	}
	data, err := dump.Marshal(got)
	if err != nil {
		return "", fmt.Errorf("failed to marshal golden data: %w", err)
	}
	if opts.jsonDir != "" {
		if err := os.MkdirAll(opts.jsonDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", opts.jsonDir, err)
		}
	}
	path := opts.goldenPath(sourceFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write golden file %s: %w", path, err)
	}
	return path, nil
}

func testFile(opts *options, file, fileHash string, previous TestSuiteResults) *FileTestResult {
	goldenFile := opts.goldenPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: statusSkip, Message: "Cannot test without a corresponding .json golden file", SourceHash: fileHash}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: statusError, Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}
	golden, err := dump.Unmarshal(goldenData)
	if err != nil {
		return &FileTestResult{File: file, Status: statusError, Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	// fileHash and dump.SourceHash share the same hex encoding of xxhash64.
	if opts.useCache && golden.SourceHash == fileHash {
		if prev, ok := previous[file]; ok && prev.Status == statusPass && prev.SourceHash == fileHash {
			return &FileTestResult{File: file, Status: statusPass, Message: "Source and golden unchanged since last passing run (cached)", SourceHash: fileHash}
		}
	}

	got, err := tokenizeFile(file, opts.cfg)
	if err != nil {
		return &FileTestResult{File: file, Status: statusError, Message: err.Error()}
	}
	if diff := cmp.Diff(golden, got); diff != "" {
		return &FileTestResult{File: file, Status: statusFail, Message: "Token stream does not match golden file", Diff: diff, SourceHash: fileHash}
	}
	return &FileTestResult{File: file, Status: statusPass, Message: "Token stream matches golden file", SourceHash: fileHash}
}

func runSuite(opts *options, files []string, previous TestSuiteResults) []*FileTestResult {
	tasks := make(chan [2]string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < max(opts.jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				resultsChan <- testFile(opts, task[0], task[1], previous)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[string]string)
	for _, file := range files {
		if opts.skip[file] {
			resultsChan <- &FileTestResult{File: file, Status: statusSkip, Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: statusError, Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: statusSkip, Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- [2]string{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var results []*FileTestResult
	for result := range resultsChan {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results
}

func loadPreviousResults(path string) (TestSuiteResults, error) {
	previous := make(TestSuiteResults)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return previous, nil
	}
	if err != nil {
		return previous, err
	}
	if err := json.Unmarshal(data, &previous); err != nil {
		return make(TestSuiteResults), fmt.Errorf("could not parse previous results file %s: %w", path, err)
	}
	return previous, nil
}

func writeJSONReport(path string, results []*FileTestResult) (TestSuiteResults, error) {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}
	data, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		return resultsMap, fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return resultsMap, fmt.Errorf("failed to write JSON report to %s: %w", path, err)
	}
	return resultsMap, nil
}

func hasFailures(results []*FileTestResult) bool {
	for _, result := range results {
		if result.Status == statusFail || result.Status == statusError {
			return true
		}
	}
	return false
}

func printSummary(w io.Writer, results []*FileTestResult, verbose bool) {
	var passed, failed, skipped, errored int
	for _, result := range results {
		if result.Status == statusPass && !verbose {
			passed++
			continue
		}
		fmt.Fprintln(w, "----------------------------------------------------------------------")
		fmt.Fprintf(w, "Testing %s%s%s...\n", cCyan, result.File, cNone)
		switch result.Status {
		case statusPass:
			passed++
			fmt.Fprintf(w, "  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case statusFail:
			failed++
			fmt.Fprintf(w, "  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Fprintln(w, formatDiff(result.Diff))
		case statusSkip:
			skipped++
			fmt.Fprintf(w, "  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case statusError:
			errored++
			fmt.Fprintf(w, "  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}
	}

	fmt.Fprintln(w, "----------------------------------------------------------------------")
	fmt.Fprintf(w, "%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			builder.WriteString(cRed)
		case strings.HasPrefix(trimmed, "+"):
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line + cNone + "\n")
	}
	return builder.String()
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if seen[absFile] {
				continue
			}
			if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
				allFiles = append(allFiles, absFile)
				seen[absFile] = true
			}
		}
	}
	return allFiles, nil
}
