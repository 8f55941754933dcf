// Package source decides which backend plays a URL.  Matching is purely pattern based on the URL's shape; nothing
// here touches the network except ExpandPlaylist.
package source

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind identifies a playback backend
type Kind string

const (
	// KindNone means no backend is mounted
	KindNone Kind = "none"
	// KindYouTube represents youtube.com and youtu.be videos and playlists
	KindYouTube Kind = "youtube"
	// KindSoundCloud represents soundcloud.com tracks
	KindSoundCloud Kind = "soundcloud"
	// KindVimeo represents vimeo.com videos
	KindVimeo Kind = "vimeo"
	// KindFile represents a direct media URL or local file
	KindFile Kind = "file"
	// KindUnsupported is returned when no backend accepts a URL
	KindUnsupported Kind = "unsupported"
)

// Kinds lists every playable backend in match order
var Kinds = []Kind{KindYouTube, KindSoundCloud, KindVimeo, KindFile}

// ErrUnsupportedSource is returned when no backend accepts any of the given URLs
var ErrUnsupportedSource = errors.New("unsupported source")

var (
	youtubeVideoPattern    = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:embed/|v/|shorts/|watch\?v=|watch\?.+&v=))([\w-]{11})(?:$|[^\w-])`)
	youtubePlaylistPattern = regexp.MustCompile(`youtube\.com/playlist\?(?:.*&)?list=([\w-]+)`)
	soundcloudPattern      = regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?soundcloud\.com/([a-z0-9_-]+/[a-z0-9_-]+)/?(?:$|[?#])`)
	vimeoPattern           = regexp.MustCompile(`^https?://(?:www\.|player\.)?vimeo\.com/(?:video/)?(\d+)(?:$|[/?#])`)
	fileExtensionPattern   = regexp.MustCompile(`(?i)\.(mp4|og[gva]|webm|mov|m4v|m4a|mp3|wav|flac|aac|opus|mkv|m3u8)$`)
)

// Match returns the backend that should play rawURL.  The first matching backend wins, in the order of Kinds.
func Match(rawURL string) Kind {
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case rawURL == "":
		return KindUnsupported
	case youtubeVideoPattern.MatchString(rawURL), youtubePlaylistPattern.MatchString(rawURL):
		return KindYouTube
	case soundcloudPattern.MatchString(rawURL):
		return KindSoundCloud
	case vimeoPattern.MatchString(rawURL):
		return KindVimeo
	case isFile(rawURL):
		return KindFile
	default:
		return KindUnsupported
	}
}

// MatchList walks an ordered list of sources and returns the first one some backend accepts
func MatchList(urls []string) (string, Kind, error) {
	for _, u := range urls {
		if kind := Match(u); kind != KindUnsupported {
			return strings.TrimSpace(u), kind, nil
		}
	}
	return "", KindUnsupported, ErrUnsupportedSource
}

// isFile accepts local paths, file:// URLs and http(s) URLs whose path carries a known media extension
func isFile(rawURL string) bool {
	if filepath.IsAbs(rawURL) {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "file":
		return u.Path != ""
	case "http", "https":
		return u.Host != "" && fileExtensionPattern.MatchString(u.Path)
	default:
		return false
	}
}

// IsLocal reports whether a File source refers to the local filesystem rather than a remote URL
func IsLocal(rawURL string) bool {
	return filepath.IsAbs(rawURL) || strings.HasPrefix(rawURL, "file://")
}

// LocalPath converts a local source into a filesystem path
func LocalPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	return rawURL
}

// YouTubeID extracts the 11 character video id, or "" if rawURL is not a YouTube video URL
func YouTubeID(rawURL string) string {
	if m := youtubeVideoPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// YouTubePlaylistID extracts the playlist id from a youtube.com/playlist URL
func YouTubePlaylistID(rawURL string) string {
	if m := youtubePlaylistPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// VimeoID extracts the numeric Vimeo video id
func VimeoID(rawURL string) string {
	if m := vimeoPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// SoundCloudPath extracts the "user/track" permalink path
func SoundCloudPath(rawURL string) string {
	if m := soundcloudPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// IsWebURL reports whether rawURL is an absolute http(s) URL.  The player probes such URLs as direct media when no
// pattern accepts them.
func IsWebURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
