package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/httputil"
	"github.com/PizzaHomicide/omniplayer/internal/source"
)

// soundcloudTrack is the subset of the resolve API's track resource used here
type soundcloudTrack struct {
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Duration   int64  `json:"duration"` // Milliseconds
	Streamable bool   `json:"streamable"`
	StreamURL  string `json:"stream_url"`
}

// soundcloudResolver turns a track permalink into its stream through the resolve API
type soundcloudResolver struct {
	client   *http.Client
	endpoint string
}

func (r *soundcloudResolver) kind() source.Kind { return source.KindSoundCloud }

func (r *soundcloudResolver) resolve(ctx context.Context, rawURL string, opts config.Options) (resolvedMedia, error) {
	var media resolvedMedia

	clientID := opts.SoundCloud.ClientID
	if clientID == "" {
		clientID = config.DefaultSoundCloudClientID
	}
	permalink, _, _ := strings.Cut(rawURL, "#")
	q := url.Values{"url": {permalink}, "client_id": {clientID}}

	var track soundcloudTrack
	if err := httputil.GetJSON(ctx, r.client, r.endpoint+"?"+q.Encode(), &track); err != nil {
		return media, lookupError("track "+source.SoundCloudPath(rawURL), err)
	}
	if track.Kind != "track" {
		return media, fmt.Errorf("%s is a %s, not a track", source.SoundCloudPath(rawURL), track.Kind)
	}
	if !track.Streamable || track.StreamURL == "" {
		return media, errors.New("track is not streamable")
	}

	sep := "?"
	if strings.Contains(track.StreamURL, "?") {
		sep = "&"
	}
	media.Target = track.StreamURL + sep + "client_id=" + url.QueryEscape(clientID)
	media.Duration = float64(track.Duration) / 1000
	media.Load.Title = track.Title
	if v, ok := source.StartTime(rawURL); ok {
		media.Load.Start = v
	}
	return media, nil
}
