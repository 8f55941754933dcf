package player

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/httputil"
	"github.com/PizzaHomicide/omniplayer/internal/source"
)

// vimeoResolver checks a video through oEmbed, which also gives its duration, and maps the iframe params
type vimeoResolver struct {
	client   *http.Client
	endpoint string
}

func (r *vimeoResolver) kind() source.Kind { return source.KindVimeo }

func (r *vimeoResolver) resolve(ctx context.Context, rawURL string, opts config.Options) (resolvedMedia, error) {
	var media resolvedMedia

	id := source.VimeoID(rawURL)
	if id == "" {
		return media, &Error{Kind: ErrorUnsupportedSource, Err: fmt.Errorf("no video id in %q", rawURL)}
	}
	pageURL := "https://vimeo.com/" + id
	q := url.Values{"url": {pageURL}}

	var meta oEmbed
	if err := httputil.GetJSON(ctx, r.client, r.endpoint+"?"+q.Encode(), &meta); err != nil {
		return media, lookupError("video "+id, err)
	}

	params := opts.Vimeo.IframeParams
	media.Target = pageURL
	media.Duration = meta.Duration
	media.Autoplay = truthy(params["autoplay"])
	media.Load.Title = meta.Title
	media.Load.Loop = truthy(params["loop"])
	media.Load.Mute = truthy(params["muted"])
	if v, ok := source.StartTime(rawURL); ok {
		media.Load.Start = v
	}
	return media, nil
}
