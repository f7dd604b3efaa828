package response

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// ErrNoContent is returned by Document when the envelope carries no body.
var ErrNoContent = errors.New("response has no content")

// DetectCharset guesses the charset of raw bytes, defaulting to utf-8.
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Charset returns the declared charset of the content type, or a detected one.
func (r *Response) Charset() string {
	if _, params, err := mime.ParseMediaType(r.contentType); err == nil {
		if cs := params["charset"]; cs != "" {
			return strings.ToLower(cs)
		}
	}
	return DetectCharset(r.body)
}

// Text decodes the body to UTF-8 using the declared or detected charset.
// Undecodable content is returned as-is.
func (r *Response) Text() string {
	if r.body == nil {
		return r.String()
	}
	reader, err := r.utf8Reader()
	if err != nil {
		return string(r.body)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return string(r.body)
	}
	return string(out)
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	if len(r.body) == 0 {
		return nil, ErrNoContent
	}
	reader, err := r.utf8Reader()
	if err != nil {
		// Fallback to direct parsing
		reader = bytes.NewReader(r.body)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func (r *Response) utf8Reader() (io.Reader, error) {
	return charset.NewReaderLabel(r.Charset(), bytes.NewReader(r.body))
}
