/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: coverage.go
Description: Coverage summary parsing for fuzz reports. Reads the index.js summary
written by kcov and extracts the instrumented and covered line counters to compute the
campaign's line coverage percentage.
*/

package coverage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/kleascm/fuzz-report/pkg/config"
	"github.com/kleascm/fuzz-report/pkg/failure"
)

var (
	instrumentedRegex = regexp.MustCompile(`"instrumented" : (\d+)`)
	coveredRegex      = regexp.MustCompile(`"covered" : (\d+)`)
)

// Summary holds the line counters of a kcov report
type Summary struct {
	Instrumented int64 `json:"instrumented"`
	Covered      int64 `json:"covered"`
}

// ParseSummary finds the first "instrumented" and the first "covered" counter in
// contents. Their order in the file does not matter.
func ParseSummary(contents string) (*Summary, error) {
	instrumented, err := findCounter(instrumentedRegex, "instrumented", contents)
	if err != nil {
		return nil, err
	}
	covered, err := findCounter(coveredRegex, "covered", contents)
	if err != nil {
		return nil, err
	}
	return &Summary{Instrumented: instrumented, Covered: covered}, nil
}

func findCounter(re *regexp.Regexp, name, contents string) (int64, error) {
	m := re.FindStringSubmatch(contents)
	if m == nil {
		return 0, failure.New(failure.KindPatternMismatch, name, "no %q counter in coverage summary", name)
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, failure.Wrap(failure.KindInvalidValue, name, err)
	}
	return v, nil
}

// Percent returns covered / instrumented * 100. A summary without instrumented
// lines has no meaningful coverage and is rejected.
func (s *Summary) Percent() (float64, error) {
	if s.Instrumented == 0 {
		return 0, failure.New(failure.KindInvalidValue, "instrumented", "coverage summary reports zero instrumented lines")
	}
	return float64(s.Covered) / float64(s.Instrumented) * 100, nil
}

// Format returns the coverage percentage with two decimals and a trailing %
func (s *Summary) Format() (string, error) {
	percent, err := s.Percent()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2f%%", percent), nil
}

// Uncovered returns the number of instrumented lines never hit
func (s *Summary) Uncovered() int64 {
	if s.Covered > s.Instrumented {
		return 0
	}
	return s.Instrumented - s.Covered
}

// SummaryPath returns the coverage summary location inside a fuzz output directory
func SummaryPath(outDir string, layout config.Layout) string {
	return filepath.Join(outDir, layout.CoverageDir, layout.CoverageFile)
}

// Read parses the coverage summary of the run in outDir
func Read(outDir string, layout config.Layout) (*Summary, error) {
	path := SummaryPath(outDir, layout)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(failure.KindMissingFile, path, err)
	}

	s, err := ParseSummary(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, nil
}
