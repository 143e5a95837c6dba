/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: renderer.go
Description: Report body rendering. Loads a text and an HTML template from a search path
(or the built-in defaults) and executes both against the assembled record, bound as the
single template variable "report". The HTML body goes through html/template's
contextual escaping.
*/

package reporting

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	texttemplate "text/template"

	"github.com/kleascm/fuzz-report/pkg/failure"
	"github.com/kleascm/fuzz-report/pkg/report"
	"github.com/sirupsen/logrus"
)

// Bodies holds the rendered report bodies
type Bodies struct {
	Text string
	HTML string
}

// Renderer renders report bodies from named templates
type Renderer struct {
	searchPath string
	textName   string
	htmlName   string
	logger     *logrus.Logger
}

// NewRenderer creates a renderer resolving textName and htmlName in searchPath.
// An empty searchPath selects DefaultTextTemplate and DefaultHTMLTemplate.
func NewRenderer(searchPath, textName, htmlName string, logger *logrus.Logger) *Renderer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Renderer{
		searchPath: searchPath,
		textName:   textName,
		htmlName:   htmlName,
		logger:     logger,
	}
}

// Render executes both templates against record
func (r *Renderer) Render(record report.Record) (*Bodies, error) {
	data := map[string]interface{}{"report": record}

	textSrc, err := r.load(r.textName, DefaultTextTemplate)
	if err != nil {
		return nil, err
	}
	htmlSrc, err := r.load(r.htmlName, DefaultHTMLTemplate)
	if err != nil {
		return nil, err
	}

	textTmpl, err := texttemplate.New(r.textName).Option("missingkey=error").Parse(textSrc)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidInput, r.textName, err)
	}
	htmlTmpl, err := htmltemplate.New(r.htmlName).Option("missingkey=error").Parse(htmlSrc)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidInput, r.htmlName, err)
	}

	var textBuf, htmlBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return nil, failure.Wrap(failure.KindInvalidInput, r.textName, fmt.Errorf("failed to execute template: %w", err))
	}
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return nil, failure.Wrap(failure.KindInvalidInput, r.htmlName, fmt.Errorf("failed to execute template: %w", err))
	}

	r.logger.WithFields(logrus.Fields{
		"text_bytes": textBuf.Len(),
		"html_bytes": htmlBuf.Len(),
	}).Debug("Report bodies rendered")

	return &Bodies{Text: textBuf.String(), HTML: htmlBuf.String()}, nil
}

// load returns the template source for name, or fallback when no search path is set
func (r *Renderer) load(name, fallback string) (string, error) {
	if r.searchPath == "" {
		return fallback, nil
	}
	path := filepath.Join(r.searchPath, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", failure.Wrap(failure.KindMissingFile, path, err)
	}
	return string(data), nil
}
