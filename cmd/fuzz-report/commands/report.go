/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Report command implementation. Runs the pipeline for one task directory:
collects version and host metadata, reads the fuzzer stats and coverage summary,
assembles the report record, renders both bodies and mails them with any attachments.
Every step fails fast except the send, where a provider rejection is logged and the
command still succeeds.
*/

package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/kleascm/fuzz-report/pkg/config"
	"github.com/kleascm/fuzz-report/pkg/coverage"
	"github.com/kleascm/fuzz-report/pkg/execution"
	"github.com/kleascm/fuzz-report/pkg/failure"
	"github.com/kleascm/fuzz-report/pkg/logging"
	"github.com/kleascm/fuzz-report/pkg/mailer"
	"github.com/kleascm/fuzz-report/pkg/metadata"
	"github.com/kleascm/fuzz-report/pkg/report"
	"github.com/kleascm/fuzz-report/pkg/reporting"
	"github.com/kleascm/fuzz-report/pkg/stats"
	"github.com/kleascm/fuzz-report/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunReport executes the report pipeline for args[0], attaching args[1:]
func RunReport(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()

	cfg, err := LoadConfig(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging(v)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	pipeline := &Pipeline{
		Config: cfg,
		Runner: execution.NewProcessExecutor(cfg.CommandTimeout),
		Logger: logger,
		Out:    cmd.OutOrStdout(),
	}
	return pipeline.Run(cmd.Context(), args[0], args[1:])
}

// Pipeline holds the collaborators of one report run. A nil Sender selects SES
// in the configured region.
type Pipeline struct {
	Config *config.Config
	Runner execution.Runner
	Sender mailer.Sender
	Logger *logging.Logger
	Out    io.Writer
}

// Run builds the report for taskDir and delivers it
func (p *Pipeline) Run(ctx context.Context, taskDir string, attachments []string) error {
	bodies, err := p.Build(ctx, taskDir)
	if err != nil {
		return err
	}

	if p.Config.DryRun {
		fmt.Fprintln(p.Out, bodies.Text)
		fmt.Fprintln(p.Out, bodies.HTML)
		return nil
	}

	return p.send(ctx, bodies, attachments)
}

// Build collects every fragment, assembles the record and renders both bodies
func (p *Pipeline) Build(ctx context.Context, taskDir string) (*reporting.Bodies, error) {
	cfg := p.Config

	meta, err := metadata.NewCollector(p.Runner, cfg.Commands).Collect(ctx, taskDir)
	if err != nil {
		return nil, err
	}
	p.Logger.LogStep("metadata", map[string]interface{}{
		"task_dir":            taskDir,
		"firecracker_version": meta.FirecrackerVersion,
	})

	outDir := filepath.Join(taskDir, cfg.Layout.FuzzOutDir)

	fuzzerStats, err := stats.Read(outDir, cfg.Layout)
	if err != nil {
		return nil, err
	}
	p.Logger.LogStep("stats", map[string]interface{}{
		"fuzz_target": fuzzerStats.FuzzTarget,
		"cores":       fuzzerStats.Cores,
	})

	summary, err := coverage.Read(outDir, cfg.Layout)
	if err != nil {
		return nil, err
	}
	formatted, err := summary.Format()
	if err != nil {
		return nil, fmt.Errorf("failed to compute coverage: %w", err)
	}
	p.Logger.LogStep("coverage", map[string]interface{}{
		"coverage":  formatted,
		"uncovered": summary.Uncovered(),
	})

	record, err := report.Assemble(
		meta,
		report.PathFragment(taskDir),
		fuzzerStats,
		report.CoverageFragment(formatted),
	)
	if err != nil {
		return nil, err
	}
	p.Logger.LogStep("assemble", map[string]interface{}{"fields": len(record)})
	p.Logger.GetLogger().Debugf("Assembled report record:\n%s", record)

	if cfg.ArchiveDir != "" {
		path, err := utils.WriteReportArchive(cfg.ArchiveDir, fuzzerStats.FuzzTarget, record)
		if err != nil {
			return nil, err
		}
		p.Logger.LogStep("archive", map[string]interface{}{"archive": path})
	}

	renderer := reporting.NewRenderer(cfg.TemplateDir, cfg.TextTemplate, cfg.HTMLTemplate, p.Logger.GetLogger())
	// The renderer gets its own copy; the archived record stays as assembled.
	bodies, err := renderer.Render(record.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	p.Logger.LogStep("render", nil)

	return bodies, nil
}

// send mails bodies. A provider rejection is reported and swallowed.
func (p *Pipeline) send(ctx context.Context, bodies *reporting.Bodies, attachments []string) error {
	sender := p.Sender
	if sender == nil {
		ses, err := mailer.NewSESSenderForRegion(ctx, p.Config.Region)
		if err != nil {
			return err
		}
		sender = ses
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.Config.SendTimeout)
	defer cancel()

	m := mailer.New(mailer.OptionsFromConfig(p.Config), sender, p.Logger.GetLogger())
	result, err := m.Send(sendCtx, bodies, attachments)

	recipients := 0
	if result != nil {
		recipients = len(result.Recipients)
	}

	if err != nil {
		if !failure.IsRecoverable(err) {
			return err
		}
		p.Logger.LogSend("", recipients, err)
		fmt.Fprintf(p.Out, "Email not sent: %v\n", err)
		return nil
	}

	p.Logger.LogSend(result.MessageID, recipients, nil)
	fmt.Fprintf(p.Out, "Email sent! Message ID: %s\n", result.MessageID)
	return nil
}
