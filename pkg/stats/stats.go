/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: Fuzzer statistics for campaign reports. Turns an AFL fuzzer_stats snapshot
into typed FuzzerStats: target and build profile, instance count, start time and the
execution, cycle, hang and crash counters.
*/

package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kleascm/fuzz-report/pkg/config"
	"github.com/kleascm/fuzz-report/pkg/failure"
)

// Status file keys every report needs
const (
	KeyCommandLine   = "command_line"
	KeyStartTime     = "start_time"
	KeyExecsDone     = "execs_done"
	KeyCyclesDone    = "cycles_done"
	KeyStability     = "stability"
	KeyUniqueHangs   = "unique_hangs"
	KeyUniqueCrashes = "unique_crashes"
)

// RequiredKeys lists the status file keys Parse looks up
var RequiredKeys = []string{
	KeyCommandLine,
	KeyStartTime,
	KeyExecsDone,
	KeyCyclesDone,
	KeyStability,
	KeyUniqueHangs,
	KeyUniqueCrashes,
}

// FuzzerStats is the fuzzer fragment of a report
type FuzzerStats struct {
	TargetInfo
	Cores         int       `json:"cores"`
	StartTime     time.Time `json:"start_time"`
	ExecsDone     int64     `json:"execs_done"`
	CyclesDone    int64     `json:"cycles_done"`
	Stability     string    `json:"stability"` // verbatim, already carries its percent sign
	UniqueHangs   int64     `json:"unique_hangs"`
	UniqueCrashes int64     `json:"unique_crashes"`
}

// Fields returns the report record fields contributed by the fuzzer stats.
// StartTime is returned as a time.Time; the report package wraps it for display.
func (s *FuzzerStats) Fields() map[string]interface{} {
	return map[string]interface{}{
		"fuzz_target":    s.FuzzTarget,
		"profile":        s.Profile,
		"target":         s.Target,
		"cores":          s.Cores,
		"start_time":     s.StartTime,
		"execs_done":     s.ExecsDone,
		"cycles_done":    s.CyclesDone,
		"stability":      s.Stability,
		"unique_hangs":   s.UniqueHangs,
		"unique_crashes": s.UniqueCrashes,
	}
}

// Parse builds FuzzerStats from parsed status fields. Cores is left at zero;
// it comes from the run directory, not the status file.
func Parse(fields map[string]string) (*FuzzerStats, error) {
	for _, key := range RequiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, failure.New(failure.KindMissingKey, key, "required key missing from fuzzer stats")
		}
	}

	target, err := ParseTarget(fields[KeyCommandLine])
	if err != nil {
		return nil, err
	}

	startEpoch, err := strconv.ParseInt(fields[KeyStartTime], 10, 64)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidValue, KeyStartTime, err)
	}

	s := &FuzzerStats{
		TargetInfo: target,
		StartTime:  time.Unix(startEpoch, 0).Local(),
		Stability:  fields[KeyStability],
	}

	counters := []struct {
		key string
		dst *int64
	}{
		{KeyExecsDone, &s.ExecsDone},
		{KeyCyclesDone, &s.CyclesDone},
		{KeyUniqueHangs, &s.UniqueHangs},
		{KeyUniqueCrashes, &s.UniqueCrashes},
	}
	for _, c := range counters {
		v, err := parseCounter(fields, c.key)
		if err != nil {
			return nil, err
		}
		*c.dst = v
	}

	return s, nil
}

// parseCounter parses a non-negative base-10 counter. Signs are rejected.
func parseCounter(fields map[string]string, key string) (int64, error) {
	v, err := strconv.ParseUint(fields[key], 10, 63)
	if err != nil {
		return 0, failure.Wrap(failure.KindInvalidValue, key, err)
	}
	return int64(v), nil
}

// StatsPath returns the status file location inside a fuzz output directory
func StatsPath(outDir string, layout config.Layout) string {
	return filepath.Join(outDir, layout.StatsDir, layout.StatsFile)
}

// Read parses the status file of the run in outDir and counts its fuzzer instances
func Read(outDir string, layout config.Layout) (*FuzzerStats, error) {
	path := StatsPath(outDir, layout)

	fields, err := readStatusFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	s.Cores, err = CountCores(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to count fuzzer instances: %w", err)
	}

	return s, nil
}

func readStatusFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, failure.Wrap(failure.KindMissingFile, path, err)
	}
	defer file.Close()

	fields, err := ParseStatusLines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fields, nil
}
