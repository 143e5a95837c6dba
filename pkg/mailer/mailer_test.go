/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mailer_test.go
Description: Tests for report email construction and delivery. Raw messages are parsed
back with net/mail and mime/multipart to check the envelope structure.
*/

package mailer_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/kleascm/fuzz-report/pkg/failure"
	"github.com/kleascm/fuzz-report/pkg/mailer"
	"github.com/kleascm/fuzz-report/pkg/reporting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	source       string
	destinations []string
	raw          []byte
	calls        int
	messageID    string
	err          error
}

func (f *fakeSender) SendRaw(ctx context.Context, source string, destinations []string, raw []byte) (string, error) {
	f.calls++
	f.source = source
	f.destinations = destinations
	f.raw = raw
	return f.messageID, f.err
}

func testOptions(t *testing.T) mailer.Options {
	return mailer.Options{
		Sender:         "Fuzzing service <email@example.com>",
		Subject:        "Fuzzing report",
		Charset:        "utf-8",
		RecipientsFile: writeMailingList(t, "alice@example.com\nbob@example.com\n"),
	}
}

func testBodies() *reporting.Bodies {
	return &reporting.Bodies{Text: "plain report body", HTML: "<p>html report body</p>"}
}

// readParts returns the parts of a multipart entity keyed by content type, plus attachments by filename
func readParts(t *testing.T, contentType string, body io.Reader) (map[string]string, map[string][]byte) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Contains(t, mediaType, "multipart/")

	bodies := map[string]string{}
	files := map[string][]byte{}
	reader := multipart.NewReader(body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		partType := part.Header.Get("Content-Type")
		if name := part.FileName(); name != "" {
			encoded, err := io.ReadAll(part)
			require.NoError(t, err)
			decoded, err := base64.StdEncoding.DecodeString(string(encoded))
			require.NoError(t, err)
			files[name] = decoded
			continue
		}

		partMedia, _, err := mime.ParseMediaType(partType)
		require.NoError(t, err)
		if partMedia == "multipart/alternative" {
			inner, innerFiles := readParts(t, partType, part)
			for k, v := range inner {
				bodies[k] = v
			}
			for k, v := range innerFiles {
				files[k] = v
			}
			continue
		}

		data, err := io.ReadAll(part)
		require.NoError(t, err)
		bodies[partMedia] = string(data)
	}
	return bodies, files
}

func TestSendWithAttachments(t *testing.T) {
	dir := t.TempDir()
	crash := filepath.Join(dir, "crash-0001.bin")
	logFile := filepath.Join(dir, "fuzz.log")
	require.NoError(t, os.WriteFile(crash, []byte{0x00, 0xff, 0x10, 0x7f}, 0644))
	require.NoError(t, os.WriteFile(logFile, []byte("fuzzer log\n"), 0644))

	sender := &fakeSender{messageID: "0102018c-msg"}
	m := mailer.New(testOptions(t), sender, nil)

	result, err := m.Send(context.Background(), testBodies(), []string{crash, logFile})
	require.NoError(t, err)

	assert.Equal(t, "0102018c-msg", result.MessageID)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, result.Recipients)
	_, err = uuid.Parse(result.ReportID)
	assert.NoError(t, err)

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "Fuzzing service <email@example.com>", sender.source)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, sender.destinations)

	msg, err := mail.ReadMessage(bytes.NewReader(sender.raw))
	require.NoError(t, err)
	assert.Equal(t, "Fuzzing report", msg.Header.Get("Subject"))
	assert.Equal(t, result.ReportID, msg.Header.Get(mailer.ReportIDHeader))
	assert.Empty(t, msg.Header.Get("To"))

	mediaType, _, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	bodies, files := readParts(t, msg.Header.Get("Content-Type"), msg.Body)
	assert.Equal(t, "plain report body", bodies["text/plain"])
	assert.Equal(t, "<p>html report body</p>", bodies["text/html"])
	assert.Equal(t, []byte{0x00, 0xff, 0x10, 0x7f}, files["crash-0001.bin"])
	assert.Equal(t, []byte("fuzzer log\n"), files["fuzz.log"])
}

// topLevelTypes returns the media types of the direct children of a multipart body
func topLevelTypes(t *testing.T, contentType string, body io.Reader) []string {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	var types []string
	reader := multipart.NewReader(body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		mediaType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		require.NoError(t, err)
		types = append(types, mediaType)
	}
	return types
}

func TestSendWithoutAttachments(t *testing.T) {
	sender := &fakeSender{messageID: "id"}
	m := mailer.New(testOptions(t), sender, nil)

	_, err := m.Send(context.Background(), testBodies(), nil)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(sender.raw))
	require.NoError(t, err)
	mediaType, _, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	assert.Equal(t, []string{"multipart/alternative"}, topLevelTypes(t, msg.Header.Get("Content-Type"), msg.Body))

	msg, err = mail.ReadMessage(bytes.NewReader(sender.raw))
	require.NoError(t, err)
	bodies, files := readParts(t, msg.Header.Get("Content-Type"), msg.Body)
	assert.Equal(t, "plain report body", bodies["text/plain"])
	assert.Equal(t, "<p>html report body</p>", bodies["text/html"])
	assert.Empty(t, files)
}

func TestSendEnvelopeOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.bin")
	second := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(first, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("b"), 0644))

	sender := &fakeSender{messageID: "id"}
	_, err := mailer.New(testOptions(t), sender, nil).Send(context.Background(), testBodies(), []string{first, second})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(sender.raw))
	require.NoError(t, err)
	types := topLevelTypes(t, msg.Header.Get("Content-Type"), msg.Body)
	require.Len(t, types, 3)
	assert.Equal(t, "multipart/alternative", types[0])
}

func TestSendInvalidSender(t *testing.T) {
	sender := &fakeSender{messageID: "id"}
	opts := testOptions(t)
	opts.Sender = "not an address"

	_, err := mailer.New(opts, sender, nil).Send(context.Background(), testBodies(), nil)
	require.Error(t, err)
	assert.Equal(t, failure.KindInvalidInput, failure.KindOf(err))
	assert.Zero(t, sender.calls)
}

func TestSendUniqueReportIDs(t *testing.T) {
	m := mailer.New(testOptions(t), &fakeSender{messageID: "id"}, nil)

	first, err := m.Send(context.Background(), testBodies(), nil)
	require.NoError(t, err)
	second, err := m.Send(context.Background(), testBodies(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ReportID, second.ReportID)
}

func TestSendMissingAttachment(t *testing.T) {
	sender := &fakeSender{messageID: "id"}
	m := mailer.New(testOptions(t), sender, nil)

	missing := filepath.Join(t.TempDir(), "gone.bin")
	_, err := m.Send(context.Background(), testBodies(), []string{missing})
	require.Error(t, err)
	assert.Equal(t, failure.KindMissingFile, failure.KindOf(err))
	assert.Contains(t, err.Error(), missing)
	assert.Zero(t, sender.calls)
}

func TestSendMissingMailingList(t *testing.T) {
	sender := &fakeSender{messageID: "id"}
	opts := testOptions(t)
	opts.RecipientsFile = filepath.Join(t.TempDir(), ".mailinglist")

	result, err := mailer.New(opts, sender, nil).Send(context.Background(), testBodies(), nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, failure.KindMissingFile, failure.KindOf(err))
	assert.Zero(t, sender.calls)
}

func TestSendReturnsResultOnSenderError(t *testing.T) {
	sendErr := failure.New(failure.KindProvider, "", "Email address is not verified.")
	m := mailer.New(testOptions(t), &fakeSender{err: sendErr}, nil)

	result, err := m.Send(context.Background(), testBodies(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sendErr))
	require.NotNil(t, result)
	assert.Empty(t, result.MessageID)
	assert.Len(t, result.Recipients, 2)
	assert.NotEmpty(t, result.ReportID)
}
