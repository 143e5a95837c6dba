/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: message.go
Description: MIME construction for the report email. The envelope is always
multipart/mixed: a multipart/alternative part holding the text and HTML bodies,
followed by one attachment part per file, named after the file's basename. Each
message is stamped with a random report id so a delivered email can be matched to
its log lines and archived record.
*/

package mailer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/kleascm/fuzz-report/pkg/failure"
	"github.com/kleascm/fuzz-report/pkg/reporting"
)

// ReportIDHeader carries the per-message report id
const ReportIDHeader = "X-Fuzz-Report-Id"

// Options is the fixed envelope of every report email
type Options struct {
	Sender         string
	Subject        string
	Charset        string
	RecipientsFile string
}

// Message is a serialised report email
type Message struct {
	ReportID string
	Raw      []byte
}

// BuildMessage assembles and serialises the report email. An attachment that
// cannot be read is a missing-file error.
func BuildMessage(opts Options, bodies *reporting.Bodies, attachments []string) (*Message, error) {
	from, err := mail.ParseAddress(opts.Sender)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidInput, "sender", err)
	}
	reportID := uuid.New().String()

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetSubject(opts.Subject)
	h.Set(ReportIDHeader, reportID)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, failure.Wrap(failure.KindInternal, "mime", err)
	}

	if err := writeBodies(mw, opts.Charset, bodies); err != nil {
		return nil, failure.Wrap(failure.KindInternal, "mime", err)
	}

	for _, path := range attachments {
		if err := writeAttachment(mw, path); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, failure.Wrap(failure.KindInternal, "mime", err)
	}
	return &Message{ReportID: reportID, Raw: buf.Bytes()}, nil
}

// writeBodies adds the multipart/alternative part
func writeBodies(mw *mail.Writer, charset string, bodies *reporting.Bodies) error {
	alt, err := mw.CreateInline()
	if err != nil {
		return err
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", bodies.Text},
		{"text/html", bodies.HTML},
	}
	for _, part := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(part.contentType, map[string]string{"charset": charset})
		ph.Set("Content-Transfer-Encoding", "quoted-printable")

		w, err := alt.CreatePart(ph)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, part.body); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return alt.Close()
}

// writeAttachment adds path as a base64 attachment part
func writeAttachment(mw *mail.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure.Wrap(failure.KindMissingFile, path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var ah mail.AttachmentHeader
	ah.Set("Content-Type", contentType)
	ah.SetFilename(filepath.Base(path))
	ah.Set("Content-Transfer-Encoding", "base64")

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return failure.Wrap(failure.KindInternal, "mime", err)
	}
	if _, err := w.Write(data); err != nil {
		return failure.Wrap(failure.KindInternal, "mime", fmt.Errorf("failed to write %s: %w", path, err))
	}
	if err := w.Close(); err != nil {
		return failure.Wrap(failure.KindInternal, "mime", err)
	}
	return nil
}
