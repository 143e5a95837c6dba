/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mailer.go
Description: Report delivery. Reads the mailing list, builds and serialises the MIME
message, then hands it to a Sender. The result is returned even when the send fails so
the caller can log which report and how many recipients were affected.
*/

package mailer

import (
	"context"
	"fmt"

	"github.com/kleascm/fuzz-report/pkg/config"
	"github.com/kleascm/fuzz-report/pkg/reporting"
	"github.com/sirupsen/logrus"
)

// Result describes one delivery attempt
type Result struct {
	MessageID  string
	ReportID   string
	Recipients []string
}

// Mailer delivers rendered reports
type Mailer struct {
	opts   Options
	sender Sender
	logger *logrus.Logger
}

// OptionsFromConfig extracts the envelope settings from the pipeline config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sender:         cfg.Sender,
		Subject:        cfg.Subject,
		Charset:        cfg.Charset,
		RecipientsFile: cfg.RecipientsFile,
	}
}

// New creates a mailer. A nil logger uses the logrus standard logger.
func New(opts Options, sender Sender, logger *logrus.Logger) *Mailer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Mailer{opts: opts, sender: sender, logger: logger}
}

// Send mails bodies with attachments to every address on the mailing list
func (m *Mailer) Send(ctx context.Context, bodies *reporting.Bodies, attachments []string) (*Result, error) {
	recipients, err := ReadRecipients(m.opts.RecipientsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailing list: %w", err)
	}

	result := &Result{Recipients: recipients}

	msg, err := BuildMessage(m.opts, bodies, attachments)
	if err != nil {
		return result, fmt.Errorf("failed to build email: %w", err)
	}
	result.ReportID = msg.ReportID

	m.logger.WithFields(logrus.Fields{
		"report_id":   result.ReportID,
		"recipients":  len(recipients),
		"attachments": len(attachments),
		"bytes":       len(msg.Raw),
	}).Debug("Sending report email")

	messageID, err := m.sender.SendRaw(ctx, m.opts.Sender, recipients, msg.Raw)
	if err != nil {
		return result, err
	}
	result.MessageID = messageID
	return result, nil
}
