/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Configuration for the fuzz report pipeline. Holds the sender identity, SES
region, template names, run directory layout and metadata commands. Defaults reproduce
the fixed constants of the periodic Firecracker fuzzing report; every value can be
overridden from a config file, flags or FUZZ_REPORT_* environment variables via viper.
*/

package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// Layout describes where the fuzzer and coverage outputs live below a task directory
type Layout struct {
	FuzzOutDir   string `mapstructure:"fuzz_out_dir" json:"fuzz_out_dir"` // relative to the task dir
	StatsDir     string `mapstructure:"stats_dir" json:"stats_dir"`       // relative to FuzzOutDir
	StatsFile    string `mapstructure:"stats_file" json:"stats_file"`
	CoverageDir  string `mapstructure:"coverage_dir" json:"coverage_dir"` // relative to FuzzOutDir
	CoverageFile string `mapstructure:"coverage_file" json:"coverage_file"`
}

// Commands holds the argv vectors used to collect version and host metadata
type Commands struct {
	FirecrackerVersion []string `mapstructure:"firecracker_version" json:"firecracker_version"`
	FirecrackerHash    []string `mapstructure:"firecracker_hash" json:"firecracker_hash"`
	RustcVersion       []string `mapstructure:"rustc_version" json:"rustc_version"`
	AFLVersion         []string `mapstructure:"afl_version" json:"afl_version"`
	HostInfo           []string `mapstructure:"host_info" json:"host_info"`
}

// Config is the explicit configuration passed into the pipeline
type Config struct {
	Sender         string `mapstructure:"sender" json:"sender"`
	Region         string `mapstructure:"region" json:"region"`
	Subject        string `mapstructure:"subject" json:"subject"`
	Charset        string `mapstructure:"charset" json:"charset"`
	RecipientsFile string `mapstructure:"recipients_file" json:"recipients_file"`

	// TemplateDir is the template search path. Empty selects the built-in templates.
	TemplateDir  string `mapstructure:"template_dir" json:"template_dir"`
	TextTemplate string `mapstructure:"text_template" json:"text_template"`
	HTMLTemplate string `mapstructure:"html_template" json:"html_template"`

	Layout   Layout   `mapstructure:"layout" json:"layout"`
	Commands Commands `mapstructure:"commands" json:"commands"`

	CommandTimeout time.Duration `mapstructure:"command_timeout" json:"command_timeout"`
	SendTimeout    time.Duration `mapstructure:"send_timeout" json:"send_timeout"`

	ArchiveDir string `mapstructure:"archive_dir" json:"archive_dir"`
	DryRun     bool   `mapstructure:"dry_run" json:"dry_run"`
}

// DefaultLayout returns the AFL + kcov layout used by the fuzzing service
func DefaultLayout() Layout {
	return Layout{
		FuzzOutDir:   "fuzz/out",
		StatsDir:     "fuzzer01",
		StatsFile:    "fuzzer_stats",
		CoverageDir:  "kcov-report",
		CoverageFile: "index.js",
	}
}

// DefaultCommands returns the metadata commands run against a Firecracker checkout
func DefaultCommands() Commands {
	return Commands{
		FirecrackerVersion: []string{"git", "describe", "--abbrev=0"},
		FirecrackerHash:    []string{"git", "rev-parse", "--verify", "HEAD", "--short"},
		RustcVersion:       []string{"tools/devtool", "devctr_exec", "rustc --version"},
		AFLVersion:         []string{"tools/devtool", "devctr_exec", "cargo afl --version"},
		HostInfo:           []string{"uname", "-smrpio"},
	}
}

// DefaultConfig returns the configuration of the periodic fuzzing report
func DefaultConfig() *Config {
	return &Config{
		Sender:         "Fuzzing service <email@example.com>",
		Region:         "eu-central-1",
		Subject:        "Fuzzing report",
		Charset:        "utf-8",
		RecipientsFile: ".mailinglist",
		TemplateDir:    ".",
		TextTemplate:   "template.txt",
		HTMLTemplate:   "template.html",
		Layout:         DefaultLayout(),
		Commands:       DefaultCommands(),
		CommandTimeout: 5 * time.Minute,
		SendTimeout:    time.Minute,
	}
}

// SetDefaults registers the defaults with v so config files and env vars only
// need to name the values they change.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("sender", d.Sender)
	v.SetDefault("region", d.Region)
	v.SetDefault("subject", d.Subject)
	v.SetDefault("charset", d.Charset)
	v.SetDefault("recipients_file", d.RecipientsFile)
	v.SetDefault("template_dir", d.TemplateDir)
	v.SetDefault("text_template", d.TextTemplate)
	v.SetDefault("html_template", d.HTMLTemplate)
	v.SetDefault("layout.fuzz_out_dir", d.Layout.FuzzOutDir)
	v.SetDefault("layout.stats_dir", d.Layout.StatsDir)
	v.SetDefault("layout.stats_file", d.Layout.StatsFile)
	v.SetDefault("layout.coverage_dir", d.Layout.CoverageDir)
	v.SetDefault("layout.coverage_file", d.Layout.CoverageFile)
	v.SetDefault("commands.firecracker_version", d.Commands.FirecrackerVersion)
	v.SetDefault("commands.firecracker_hash", d.Commands.FirecrackerHash)
	v.SetDefault("commands.rustc_version", d.Commands.RustcVersion)
	v.SetDefault("commands.afl_version", d.Commands.AFLVersion)
	v.SetDefault("commands.host_info", d.Commands.HostInfo)
	v.SetDefault("command_timeout", d.CommandTimeout)
	v.SetDefault("send_timeout", d.SendTimeout)
	v.SetDefault("archive_dir", d.ArchiveDir)
	v.SetDefault("dry_run", d.DryRun)
}

// FromViper builds a Config from the values registered in v
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the Config for missing values
func (c *Config) Validate() error {
	required := map[string]string{
		"sender":               c.Sender,
		"region":               c.Region,
		"subject":              c.Subject,
		"charset":              c.Charset,
		"recipients_file":      c.RecipientsFile,
		"text_template":        c.TextTemplate,
		"html_template":        c.HTMLTemplate,
		"layout.stats_dir":     c.Layout.StatsDir,
		"layout.stats_file":    c.Layout.StatsFile,
		"layout.coverage_dir":  c.Layout.CoverageDir,
		"layout.coverage_file": c.Layout.CoverageFile,
	}
	for _, key := range sortedKeys(required) {
		if required[key] == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	commands := map[string][]string{
		"commands.firecracker_version": c.Commands.FirecrackerVersion,
		"commands.firecracker_hash":    c.Commands.FirecrackerHash,
		"commands.rustc_version":       c.Commands.RustcVersion,
		"commands.afl_version":         c.Commands.AFLVersion,
		"commands.host_info":           c.Commands.HostInfo,
	}
	for _, key := range sortedKeys(commands) {
		if len(commands[key]) == 0 || commands[key][0] == "" {
			return fmt.Errorf("%s must name a command", key)
		}
	}

	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive")
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
