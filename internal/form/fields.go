// Package form turns submitted pollutant fields into the numeric vector fed to
// the AQI model.
package form

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// MaxBodyBytes caps the size of a submitted form.
const MaxBodyBytes = 1 << 20

// ErrMalformedBody is returned when the form body cannot be decoded.
var ErrMalformedBody = errors.New("malformed form body")

// Field is one submitted (name, raw value) pair.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields is an ordered sequence of submitted fields. Order is submission order.
type Fields []Field

// At returns the value at position i, or "" when fewer fields were submitted.
func (f Fields) At(i int) string {
	if i < 0 || i >= len(f) {
		return ""
	}
	return f[i].Value
}

// Dedupe keeps the first value of every name, in order of first appearance.
func (f Fields) Dedupe() Fields {
	seen := make(map[string]struct{}, len(f))
	out := make(Fields, 0, len(f))
	for _, field := range f {
		if _, ok := seen[field.Name]; ok {
			continue
		}
		seen[field.Name] = struct{}{}
		out = append(out, field)
	}
	return out
}

// ParseBody decodes an application/x-www-form-urlencoded body without losing
// the order in which fields were written. Pairs are split on "&" only. A name or
// value with an invalid escape is kept as written, so a bad value is skipped at
// validation instead of failing the whole submission.
func ParseBody(body string) Fields {
	var fields Fields
	for body != "" {
		var pair string
		pair, body, _ = strings.Cut(body, "&")
		if pair == "" {
			continue
		}

		rawName, rawValue, _ := strings.Cut(pair, "=")
		fields = append(fields, Field{Name: unescape(rawName), Value: unescape(rawValue)})
	}
	return fields.Dedupe()
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// ParseRequest reads the submitted fields from a POST request. URL-encoded and
// multipart bodies are supported; file parts are ignored. Any other content
// type yields no fields.
func ParseRequest(w http.ResponseWriter, r *http.Request) (Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	contentType := r.Header.Get("Content-Type")
	mediaType := "application/x-www-form-urlencoded"
	var params map[string]string
	if contentType != "" {
		var err error
		mediaType, params, err = mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read form body: %w", err)
		}
		return ParseBody(string(body)), nil
	case "multipart/form-data":
		return parseMultipart(r.Body, params["boundary"])
	default:
		return Fields{}, nil
	}
}

func parseMultipart(body io.Reader, boundary string) (Fields, error) {
	if boundary == "" {
		return nil, fmt.Errorf("%w: missing multipart boundary", ErrMalformedBody)
	}

	reader := multipart.NewReader(body, boundary)
	var fields Fields
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}

		if part.FileName() != "" || part.FormName() == "" {
			_ = part.Close()
			continue
		}

		value, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("read multipart field: %w", err)
		}
		fields = append(fields, Field{Name: part.FormName(), Value: string(value)})
	}
	return fields.Dedupe(), nil
}
