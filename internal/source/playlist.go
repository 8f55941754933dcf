package source

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/ytget/ytdlp/v2"
)

const (
	playlistTimeout         = 60 * time.Second
	youtubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// ExpandPlaylist turns a YouTube playlist URL into the ordered list of its video URLs.  Any other URL is returned
// unchanged as a single element list.
func ExpandPlaylist(ctx context.Context, rawURL string) ([]string, error) {
	playlistID := YouTubePlaylistID(rawURL)
	if playlistID == "" {
		return []string{rawURL}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, playlistTimeout)
	defer cancel()

	log.Debug("Expanding YouTube playlist", "playlist_id", playlistID)
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	urls := make([]string, 0, len(items))
	for _, it := range items {
		urls = append(urls, fmt.Sprintf(youtubeVideoURLTemplate, it.VideoID))
	}
	log.Info("Expanded YouTube playlist", "playlist_id", playlistID, "count", len(urls))
	return urls, nil
}

// ExpandAll expands every playlist in urls in place, keeping order.  A playlist that fails to expand is kept as-is so
// the player can still try it.
func ExpandAll(ctx context.Context, urls []string) []string {
	var out []string
	for _, u := range urls {
		expanded, err := ExpandPlaylist(ctx, u)
		if err != nil {
			log.Warn("Failed to expand playlist, keeping original URL", "url", u, "error", err)
			out = append(out, u)
			continue
		}
		out = append(out, expanded...)
	}
	return out
}
