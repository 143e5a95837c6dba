/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: collector.go
Description: Metadata collection for fuzz reports. Runs the version and host commands
configured for the fuzzed project and gathers their single-line outputs. Collection is
all-or-nothing: the first failing command aborts it.
*/

package metadata

import (
	"context"
	"fmt"

	"github.com/kleascm/fuzz-report/pkg/config"
	"github.com/kleascm/fuzz-report/pkg/execution"
)

// Metadata holds the tool, version and host strings of one report
type Metadata struct {
	FirecrackerVersion string `json:"firecracker_version"`
	FirecrackerHash    string `json:"firecracker_hash"`
	RustcVersion       string `json:"rustc_version"`
	AFLVersion         string `json:"afl_version"`
	HostInfo           string `json:"host_info"`
}

// Fields returns the report record fields contributed by the metadata
func (m *Metadata) Fields() map[string]interface{} {
	return map[string]interface{}{
		"firecracker_version": m.FirecrackerVersion,
		"firecracker_hash":    m.FirecrackerHash,
		"rustc_version":       m.RustcVersion,
		"afl_version":         m.AFLVersion,
		"host_info":           m.HostInfo,
	}
}

// Collector gathers Metadata through a Runner
type Collector struct {
	runner   execution.Runner
	commands config.Commands
}

// NewCollector creates a collector running commands with runner
func NewCollector(runner execution.Runner, commands config.Commands) *Collector {
	return &Collector{runner: runner, commands: commands}
}

// Collect runs every metadata command. All commands but the host query run in taskDir.
func (c *Collector) Collect(ctx context.Context, taskDir string) (*Metadata, error) {
	m := &Metadata{}

	steps := []struct {
		name string
		dir  string
		argv []string
		dst  *string
	}{
		{"firecracker_version", taskDir, c.commands.FirecrackerVersion, &m.FirecrackerVersion},
		{"firecracker_hash", taskDir, c.commands.FirecrackerHash, &m.FirecrackerHash},
		{"rustc_version", taskDir, c.commands.RustcVersion, &m.RustcVersion},
		{"afl_version", taskDir, c.commands.AFLVersion, &m.AFLVersion},
		{"host_info", "", c.commands.HostInfo, &m.HostInfo},
	}

	for _, step := range steps {
		out, err := c.runner.Run(ctx, step.dir, step.argv)
		if err != nil {
			return nil, fmt.Errorf("failed to collect %s: %w", step.name, err)
		}
		*step.dst = out
	}

	return m, nil
}
