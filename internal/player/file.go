package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/httputil"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/PuerkitoBio/goquery"
)

const maxPageSize = 5 * 1024 * 1024

// Where a page may declare its media, in order of preference
var mediaSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:video:secure_url"]`, "content"},
	{`meta[property="og:video:url"]`, "content"},
	{`meta[property="og:video"]`, "content"},
	{`meta[property="og:audio"]`, "content"},
	{"video[src]", "src"},
	{"video source[src]", "src"},
	{"audio[src]", "src"},
	{"audio source[src]", "src"},
}

// fileResolver handles local files and direct media URLs.  Remote URLs are probed first so an unreachable file fails
// the load instead of the engine.  A URL that serves an HTML page is unwrapped to the media the page embeds.
type fileResolver struct {
	client *http.Client
	// fallback is set when no pattern accepted the URL.  Anything that does not turn out to be media is then an
	// unsupported source rather than a load failure.
	fallback bool
}

func (r *fileResolver) kind() source.Kind { return source.KindFile }

func (r *fileResolver) resolve(ctx context.Context, rawURL string, opts config.Options) (resolvedMedia, error) {
	var media resolvedMedia
	if v, ok := source.StartTime(rawURL); ok {
		media.Load.Start = v
	}

	if source.IsLocal(rawURL) {
		path := source.LocalPath(rawURL)
		info, err := os.Stat(path)
		if err != nil {
			return media, fmt.Errorf("opening %s: %w", path, err)
		}
		if info.IsDir() {
			return media, fmt.Errorf("%s is a directory", path)
		}
		media.Target = path
		media.Local = true
		return media, nil
	}

	if timeout := opts.File.ProbeTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	target, _, _ := strings.Cut(rawURL, "#")
	headers := opts.File.Headers
	resp, err := httputil.Probe(ctx, r.client, target, headers)
	if err != nil {
		return media, err
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	switch {
	case contentType == "text/html" || contentType == "application/xhtml+xml":
		found, err := r.unwrap(ctx, target, headers)
		if err != nil {
			return media, r.reject(err)
		}
		target = found
	case r.fallback && !playableType(contentType):
		return media, r.reject(fmt.Errorf("content type %q is not media", contentType))
	}

	media.Target = target
	media.Load.Headers = maps.Clone(headers)
	return media, nil
}

func (r *fileResolver) reject(err error) error {
	if r.fallback {
		return &Error{Kind: ErrorUnsupportedSource, Err: err}
	}
	return err
}

// unwrap finds the media a web page embeds
func (r *fileResolver) unwrap(ctx context.Context, pageURL string, headers map[string]string) (string, error) {
	resp, err := httputil.Fetch(ctx, r.client, pageURL, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	for _, m := range mediaSelectors {
		value, ok := doc.Find(m.selector).First().Attr(m.attr)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		ref, err := base.Parse(value)
		if err != nil {
			continue
		}
		if err := httputil.ValidateMediaURL(ref.String()); err != nil {
			continue
		}
		return ref.String(), nil
	}
	return "", errors.New("no media found in page")
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// playableType reports whether a Content-Type plausibly carries audio or video.  Servers that send none, or the
// generic octet-stream, get the benefit of the doubt.
func playableType(contentType string) bool {
	if strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "video/") {
		return true
	}
	switch contentType {
	case "", "application/octet-stream", "application/ogg", "application/vnd.apple.mpegurl",
		"application/x-mpegurl", "application/dash+xml":
		return true
	}
	return false
}
