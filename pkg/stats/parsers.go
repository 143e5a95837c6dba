/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parsers.go
Description: Small named parsers for AFL run directory artefacts: the key: value status
file, the cargo target path embedded in the fuzzer command line and the fuzzerNN
instance directories. Each returns a typed result or a classified parse error.
*/

package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/kleascm/fuzz-report/pkg/failure"
)

var (
	targetRegex = regexp.MustCompile(`cargo_target/(.+)/(debug|release)/(\w+)_fuzz_target`)
	coresRegex  = regexp.MustCompile(`^fuzzer\d{2}$`)
)

// TargetInfo is the build information recovered from the fuzzed binary path
type TargetInfo struct {
	Target     string `json:"target"`      // target triple, e.g. x86_64-unknown-linux-gnu
	Profile    string `json:"profile"`     // debug or release
	FuzzTarget string `json:"fuzz_target"` // name without the _fuzz_target suffix
}

// maxStatusLine bounds a single status line. command_line carries the whole
// afl-fuzz invocation and may exceed bufio's default token size.
const maxStatusLine = 1 << 20

// ParseStatusLines reads "key: value" lines. The first colon separates key and
// value and both are trimmed. A repeated key keeps its last value.
func ParseStatusLines(r io.Reader) (map[string]string, error) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatusLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, failure.New(failure.KindPatternMismatch, fmt.Sprintf("line %d", lineNo),
				"expected \"key: value\", got %q", line)
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, failure.Wrap(failure.KindInvalidValue, fmt.Sprintf("line %d", lineNo+1),
			fmt.Errorf("failed to read status lines: %w", err))
	}

	return fields, nil
}

// ParseTarget extracts the target triple, build profile and fuzz target name from
// the first cargo_target/<target>/<profile>/<name>_fuzz_target path in commandLine.
func ParseTarget(commandLine string) (TargetInfo, error) {
	m := targetRegex.FindStringSubmatch(commandLine)
	if m == nil {
		return TargetInfo{}, failure.New(failure.KindPatternMismatch, "command_line",
			"no cargo_target/<target>/(debug|release)/<name>_fuzz_target path in %q", commandLine)
	}
	return TargetInfo{Target: m[1], Profile: m[2], FuzzTarget: m[3]}, nil
}

// CountCores counts the fuzzer instance directories (fuzzer00 .. fuzzer99) directly
// inside dir.
func CountCores(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, failure.Wrap(failure.KindMissingFile, dir, err)
	}

	cores := 0
	for _, entry := range entries {
		if entry.IsDir() && coresRegex.MatchString(entry.Name()) {
			cores++
		}
	}
	return cores, nil
}
