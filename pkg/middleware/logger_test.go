package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStructuredLogger(t *testing.T) {
	newLogger := func(buf *bytes.Buffer) *slog.Logger {
		return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	t.Run("Success", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewStructuredLogger(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Contains(t, buf.String(), `"msg":"request completed"`)
		assert.Contains(t, buf.String(), `"status":200`)
		assert.Contains(t, buf.String(), `"path":"/healthz"`)
	})

	t.Run("Client Error", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewStructuredLogger(newLogger(&buf))(http.NotFoundHandler())

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), `"status":404`)
	})

	t.Run("Server Error", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewStructuredLogger(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/unlock", nil))
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})
}
