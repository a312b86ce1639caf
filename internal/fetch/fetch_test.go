package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
)

func fastOptions() Options {
	return Options{Attempts: 3, Delay: time.Millisecond, Timeout: 2 * time.Second}
}

func TestHTTPSourcePlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("100 - Bronx\nops@coned.com\n"))
	}))
	defer srv.Close()

	src := New(srv.URL, fastOptions())
	require.IsType(t, &HTTPSource{}, src)
	assert.Equal(t, srv.URL, src.Name())

	text, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100 - Bronx\nops@coned.com\n", text)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("100 - Bronx"))
	}))
	defer srv.Close()

	text, err := NewHTTPSource(srv.URL, fastOptions()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100 - Bronx", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, fastOptions()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrFetchFailed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSourceGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, fastOptions()).Fetch(context.Background())
	require.ErrorIs(t, err, internalerr.ErrFetchFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSourceHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>x</title></head><body><p>100 - Bronx</p><p>ops@coned.com</p></body></html>`))
	}))
	defer srv.Close()

	text, err := NewHTTPSource(srv.URL, fastOptions()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100 - Bronx\nops@coned.com", text)
}

func TestHTTPSourceCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(srv.URL, fastOptions()).Fetch(ctx)
	require.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.txt")
	require.NoError(t, os.WriteFile(path, []byte("332 - SI"), 0o644))

	src := New(path, Options{})
	require.IsType(t, &FileSource{}, src)

	text, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "332 - SI", text)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing.txt")}).Fetch(context.Background())
	assert.ErrorIs(t, err, internalerr.ErrFetchFailed)
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "No HTML here", "No HTML here"},
		{"paragraphs", "<p>Line 1</p><p>Line 2</p>", "Line 1\nLine 2"},
		{"line breaks", "100 - A<br>note<br/>x@y.com", "100 - A\nnote\nx@y.com"},
		{"nested inline", "<div><strong>332</strong> - <em>SI</em></div>", "332 - SI"},
		{"script dropped", "<script>var a = 1;</script><p>kept</p>", "kept"},
		{"list items", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.input))
		})
	}
}
