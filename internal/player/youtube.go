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

// oEmbed is the subset of an oEmbed response the backends read
type oEmbed struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// youtubeResolver checks a video exists through oEmbed and maps the embed player vars onto the engine.  YouTube's
// oEmbed does not report durations; mpv does once the stream opens.
type youtubeResolver struct {
	client   *http.Client
	endpoint string
}

func (r *youtubeResolver) kind() source.Kind { return source.KindYouTube }

func (r *youtubeResolver) resolve(ctx context.Context, rawURL string, opts config.Options) (resolvedMedia, error) {
	var media resolvedMedia

	vars := opts.YouTube.PlayerVars
	if v, ok := source.ParseTimestamp(vars["start"]); ok {
		media.Load.Start = v
	}
	if v, ok := source.ParseTimestamp(vars["end"]); ok {
		media.Load.End = v
	}
	media.Load.Loop = truthy(vars["loop"])
	media.Load.Mute = truthy(vars["mute"])
	// An offset in the URL itself wins over the configured one
	if v, ok := source.StartTime(rawURL); ok {
		media.Load.Start = v
	}

	if id := source.YouTubeID(rawURL); id != "" {
		watchURL := "https://www.youtube.com/watch?v=" + id
		q := url.Values{"url": {watchURL}, "format": {"json"}}

		var meta oEmbed
		if err := httputil.GetJSON(ctx, r.client, r.endpoint+"?"+q.Encode(), &meta); err != nil {
			return media, lookupError("video "+id, err)
		}
		media.Target = watchURL
		media.Load.Title = meta.Title
		return media, nil
	}

	if list := source.YouTubePlaylistID(rawURL); list != "" {
		media.Target = "https://www.youtube.com/playlist?list=" + list
		return media, nil
	}

	return media, &Error{Kind: ErrorUnsupportedSource, Err: fmt.Errorf("no video or playlist id in %q", rawURL)}
}
