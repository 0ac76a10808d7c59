package server

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/labstack/echo/v4"

	"gettip/internal/core"
)

// DecompressMiddleware decodes request bodies sent with Content-Encoding
// gzip, deflate or br. The decoded body may not exceed limit bytes.
// Bodies that fail to decode are answered like any other unreadable
// get-tip body: 500 with the decoder's message as details.
func DecompressMiddleware(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			encoding := strings.ToLower(strings.TrimSpace(req.Header.Get(echo.HeaderContentEncoding)))
			if encoding == "" || encoding == "identity" || req.Body == nil {
				return next(c)
			}
			if !isSupportedEncoding(encoding) {
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported Content-Encoding: "+encoding)
			}

			compressed, err := io.ReadAll(req.Body)
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					return err
				}
				return writeTipResponse(c, core.NewErrorResponse(core.NewUpstreamError(err)))
			}
			_ = req.Body.Close() //nolint:errcheck

			body, err := decompressBody(compressed, encoding, limit)
			if err != nil {
				if errors.Is(err, errBodyTooLarge) {
					return echo.ErrStatusRequestEntityTooLarge
				}
				return writeTipResponse(c, core.NewErrorResponse(core.NewUpstreamError(err)))
			}

			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

var errBodyTooLarge = errors.New("decompressed body exceeds limit")

func isSupportedEncoding(encoding string) bool {
	switch encoding {
	case "gzip", "x-gzip", "deflate", "br":
		return true
	}
	return false
}

// decompressBody decodes body, reading at most limit bytes of output
// (compression bomb protection).
func decompressBody(body []byte, encoding string, limit int64) ([]byte, error) {
	var reader io.Reader
	switch encoding {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		// HTTP deflate is zlib-wrapped, but raw deflate is common in the wild
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()
			reader = fr
		} else {
			defer zr.Close()
			reader = zr
		}
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding: %s", encoding)
	}

	decoded, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s body: %w", encoding, err)
	}
	if int64(len(decoded)) > limit {
		return nil, errBodyTooLarge
	}
	return decoded, nil
}
