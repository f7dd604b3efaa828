package transport

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/curlkit/response"
)

// AcceptEncoding is advertised when compression negotiation is on.
const AcceptEncoding = "gzip, deflate"

// Decode reverses the Content-Encoding chain of a body. Unknown and identity
// encodings are left untouched.
func Decode(body []byte, contentEncoding string) ([]byte, error) {
	if len(body) == 0 || contentEncoding == "" {
		return body, nil
	}
	codings := strings.Split(contentEncoding, ",")
	// Encodings are listed in the order they were applied.
	for i := len(codings) - 1; i >= 0; i-- {
		var err error
		body, err = decodeOne(body, strings.ToLower(strings.TrimSpace(codings[i])))
		if err != nil {
			return nil, withCode(response.CodeBadContentEncoding, err)
		}
	}
	return body, nil
}

func decodeOne(body []byte, coding string) ([]byte, error) {
	switch coding {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "deflate":
		// Most servers send zlib-wrapped data; some send raw deflate.
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer zr.Close()
			if out, err := io.ReadAll(zr); err == nil {
				return out, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		out, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return out, nil
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return body, nil
	}
}
