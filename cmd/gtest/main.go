package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xplshn/rcc/pkg/config"
)

var (
	generate   = flag.String("generate-golden", "", "Generate golden .json files for the given source files (space-separated).")
	testFiles  = flag.String("test-files", "tests/*.c", "Glob pattern(s) for files to test (space-separated).")
	skipFiles  = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	jobs       = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose    = flag.Bool("v", false, "Enable verbose logging.")
	useCache   = flag.Bool("cached", false, "Reuse PASS results for sources unchanged since the previous report.")
	jsonDir    = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	warnings   = flag.String("warnings", "", "Warning flags applied to the lexer, e.g. '-Wno-overflow -Werror' (space-separated).")
	tomlConfig = flag.String("config", "", "rcc.toml file applied to the lexer before -warnings.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	cfg := config.NewConfig()
	if *tomlConfig != "" {
		if err := cfg.LoadFile(*tomlConfig); err != nil {
			log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
		}
	}
	if err := cfg.ApplyFlags(strings.Fields(*warnings)); err != nil {
		log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
	}

	opts := &options{jsonDir: *jsonDir, jobs: *jobs, useCache: *useCache, skip: make(map[string]bool), cfg: cfg}

	if *generate != "" {
		for _, file := range strings.Fields(*generate) {
			path, err := generateGolden(opts, file)
			if err != nil {
				log.Fatalf("%s[ERROR]%s Could not generate golden file for %s: %v\n", cRed, cNone, file, err)
			}
			log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, path)
		}
		return
	}

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}
	for _, f := range strings.Fields(*skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			opts.skip[abs] = true
		}
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}
	previous, err := loadPreviousResults(outputFile)
	if err != nil {
		log.Printf("%s[WARN]%s %v. Cache will not be used.\n", cYellow, cNone, err)
	}

	if *verbose {
		log.Printf("Testing %d file(s) with %d job(s)...", len(files), max(*jobs, 1))
	}
	results := runSuite(opts, files, previous)
	printSummary(os.Stdout, results, *verbose)

	if _, err := writeJSONReport(outputFile, results); err != nil {
		log.Printf("%s[ERROR]%s %v\n", cRed, cNone, err)
	} else {
		log.Printf("Full test report saved to %s\n", outputFile)
	}

	if hasFailures(results) {
		os.Exit(1)
	}
}
