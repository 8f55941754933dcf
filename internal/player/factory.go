package player

import (
	"net/http"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/httputil"
	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/PizzaHomicide/omniplayer/internal/source"
)

// Endpoints are the backend metadata APIs
type Endpoints struct {
	YouTubeOEmbed     string
	SoundCloudResolve string
	VimeoOEmbed       string
}

// DefaultEndpoints returns the public API endpoints of each backend
func DefaultEndpoints() Endpoints {
	return Endpoints{
		YouTubeOEmbed:     "https://www.youtube.com/oembed",
		SoundCloudResolve: "https://api.soundcloud.com/resolve",
		VimeoOEmbed:       "https://vimeo.com/api/oembed.json",
	}
}

// Deps are the collaborators adapters are built with
type Deps struct {
	// NewEngine builds the engine for one adapter from the options it is loaded with
	NewEngine  func(opts config.Options) Engine
	HTTPClient *http.Client
	Endpoints  Endpoints
}

// NewDeps wires adapters to mpv and the real backend APIs
func NewDeps(cfg *config.Config) Deps {
	mpv := cfg.MPV
	return Deps{
		NewEngine: func(opts config.Options) Engine {
			return NewMPVEngine(mpv, opts.Width, opts.Height)
		},
		HTTPClient: httputil.NewClient(),
		Endpoints:  DefaultEndpoints(),
	}
}

func (d Deps) withDefaults() Deps {
	if d.HTTPClient == nil {
		d.HTTPClient = httputil.NewClient()
	}
	def := DefaultEndpoints()
	if d.Endpoints.YouTubeOEmbed == "" {
		d.Endpoints.YouTubeOEmbed = def.YouTubeOEmbed
	}
	if d.Endpoints.SoundCloudResolve == "" {
		d.Endpoints.SoundCloudResolve = def.SoundCloudResolve
	}
	if d.Endpoints.VimeoOEmbed == "" {
		d.Endpoints.VimeoOEmbed = def.VimeoOEmbed
	}
	if d.NewEngine == nil {
		d.NewEngine = func(opts config.Options) Engine {
			return NewMPVEngine(config.MPVConfig{}, opts.Width, opts.Height)
		}
	}
	return d
}

// NewAdapter creates the adapter for a backend
func NewAdapter(kind source.Kind, deps Deps) (Adapter, error) {
	deps = deps.withDefaults()
	r, err := newResolver(kind, deps)
	if err != nil {
		return nil, err
	}
	log.Debug("Creating adapter", "backend", string(kind))
	return newEngineAdapter(r, deps.NewEngine), nil
}

// newFallbackAdapter creates a File adapter for a URL no pattern accepted.  It rejects anything that does not turn
// out to be media as an unsupported source.
func newFallbackAdapter(deps Deps) Adapter {
	deps = deps.withDefaults()
	return newEngineAdapter(&fileResolver{client: deps.HTTPClient, fallback: true}, deps.NewEngine)
}

func newResolver(kind source.Kind, deps Deps) (resolver, error) {
	switch kind {
	case source.KindYouTube:
		return &youtubeResolver{client: deps.HTTPClient, endpoint: deps.Endpoints.YouTubeOEmbed}, nil
	case source.KindSoundCloud:
		return &soundcloudResolver{client: deps.HTTPClient, endpoint: deps.Endpoints.SoundCloudResolve}, nil
	case source.KindVimeo:
		return &vimeoResolver{client: deps.HTTPClient, endpoint: deps.Endpoints.VimeoOEmbed}, nil
	case source.KindFile:
		return &fileResolver{client: deps.HTTPClient}, nil
	default:
		return nil, &Error{Kind: ErrorUnsupportedSource, Backend: kind, Err: ErrUnsupportedSource}
	}
}
