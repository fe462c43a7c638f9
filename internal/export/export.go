// Package export renders reports for download: plain text, a standalone
// HTML page, or a structured JSON document.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
)

// Format is a download format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for formats other than txt, html, and json.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name in any case. An empty string means txt.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTXT, nil
	case FormatTXT, FormatHTML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Rendered is a report ready to be served or written to disk.
type Rendered struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Render produces r in the given format. The suggested filename carries the
// current time in Unix milliseconds.
func Render(f Format, r domain.Report) (Rendered, error) {
	out := Rendered{Filename: fmt.Sprintf("meteor-impact-report-%d.%s", domain.Now().UnixMilli(), f)}

	switch f {
	case FormatTXT:
		out.Body = TXT(r)
		out.ContentType = "text/plain; charset=utf-8"
	case FormatHTML:
		body, err := HTML(r)
		if err != nil {
			return Rendered{}, err
		}
		out.Body = body
		out.ContentType = "text/html; charset=utf-8"
	case FormatJSON:
		body, err := JSON(r)
		if err != nil {
			return Rendered{}, err
		}
		out.Body = body
		out.ContentType = "application/json"
	default:
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return out, nil
}
