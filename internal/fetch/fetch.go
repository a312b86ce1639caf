package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/net/html"

	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
)

// maxBody caps how much of a response or file is read.
const maxBody = 8 << 20

// Source supplies the raw directory document
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Name() string
}

// Options tunes remote fetching
type Options struct {
	Attempts uint
	Delay    time.Duration
	Timeout  time.Duration
	Client   *http.Client
}

// DefaultOptions returns the retry settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Attempts: 3,
		Delay:    time.Second,
		Timeout:  15 * time.Second,
	}
}

// New returns an HTTPSource for http(s) locations and a FileSource otherwise.
func New(location string, opts Options) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, opts)
	}
	return &FileSource{Path: location}
}

// HTTPSource downloads the document over HTTP
type HTTPSource struct {
	url  string
	opts Options
}

// NewHTTPSource creates an HTTP source; zero options fall back to defaults.
func NewHTTPSource(url string, opts Options) *HTTPSource {
	def := DefaultOptions()
	if opts.Attempts == 0 {
		opts.Attempts = def.Attempts
	}
	if opts.Delay == 0 {
		opts.Delay = def.Delay
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPSource{url: url, opts: opts}
}

// Name returns the URL.
func (s *HTTPSource) Name() string { return s.url }

// Fetch GETs the document, retrying transient failures.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	text, err := retry.DoWithData(
		func() (string, error) {
			return s.get(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(s.opts.Attempts),
		retry.Delay(s.opts.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", internalerr.ErrFetchFailed, s.url, err)
	}
	return text, nil
}

func (s *HTTPSource) get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "text/plain, text/html;q=0.9, */*;q=0.1")

	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", retry.Unrecoverable(statusErr)
		}
		return "", statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		return HTMLToText(string(body)), nil
	}
	return string(body), nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// FileSource reads the document from a local file
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.Path }

// Fetch reads the file.
func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", internalerr.ErrFetchFailed, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBody))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", internalerr.ErrFetchFailed, s.Path, err)
	}
	return string(data), nil
}

// blockElements end a line of text when they close.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTMLToText extracts the text of an HTML document, keeping one line per
// block element or <br>.
func HTMLToText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to string if parsing fails
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "br":
				buf.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteByte('\n')
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
