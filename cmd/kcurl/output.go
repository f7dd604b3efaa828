package main

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/curlkit/response"
)

// record is the printable form of an envelope.
type record struct {
	URL          string            `json:"url" yaml:"url" toml:"url"`
	Status       int               `json:"status" yaml:"status" toml:"status"`
	ContentType  string            `json:"content_type,omitempty" yaml:"content_type,omitempty" toml:"content_type,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty" yaml:"error_code,omitempty" toml:"error_code,omitempty"`
	Error        string            `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	EffectiveURL string            `json:"effective_url,omitempty" yaml:"effective_url,omitempty" toml:"effective_url,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Body         any               `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
}

type batch struct {
	Responses []record `json:"responses" yaml:"responses" toml:"responses"`
}

func validFormat(f string) bool {
	switch f {
	case "json", "yaml", "toml", "raw":
		return true
	}
	return false
}

func newRecord(url string, r *response.Response) record {
	rec := record{
		URL:          url,
		Status:       r.StatusCode(),
		ContentType:  r.ContentType(),
		EffectiveURL: r.EffectiveURL(),
	}
	if r.HasTransportError() {
		rec.ErrorCode = r.ErrorCode().String()
		rec.Error = r.ErrorMessage()
		return rec
	}
	if len(r.Headers()) > 0 {
		rec.Headers = make(map[string]string, len(r.Headers()))
		for k := range r.Headers() {
			rec.Headers[k] = r.Headers().Get(k)
		}
	}
	switch {
	case r.IsJSON():
		if obj := r.Object(); obj != nil {
			rec.Body = obj
			break
		}
		rec.Body = r.Text()
	case len(r.Body()) > 0:
		rec.Body = r.Text()
	}
	return rec
}

func write(w io.Writer, format string, urls []string, responses []*response.Response) error {
	if format == "raw" {
		for i, r := range responses {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := w.Write(r.Body()); err != nil {
				return err
			}
		}
		return nil
	}

	var v any
	if len(responses) == 1 {
		v = newRecord(urls[0], responses[0])
	} else {
		b := batch{Responses: make([]record, len(responses))}
		for i, r := range responses {
			b.Responses[i] = newRecord(urls[i], r)
		}
		v = b
	}

	data, err := encode(format, v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

func encode(format string, v any) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(v)
	case "toml":
		return toml.Marshal(v)
	default:
		data, err := sonic.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}
