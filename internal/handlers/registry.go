package handlers

// Registry dispatches a URL to its Handler by ordered match, first match
// wins; the generic fallback is appended last so it always matches.
type Registry struct {
	handlers []Handler
	fallback Handler
}

// NewRegistry builds the registry with the pipeline's fixed handler set.
// Order matters: more specific handlers (youtube.com, reddit.com, ...)
// must precede anything that could shadow them.
func NewRegistry() *Registry {
	return &Registry{
		handlers: []Handler{
			&YouTubeHandler{},
			&TikTokHandler{},
			&TwitterHandler{},
			&RedditHandler{},
			&StreamableHandler{},
			&InstagramHandler{},
			&ImgurHandler{},
			&BlueskyHandler{},
		},
		fallback: &GenericHandler{},
	}
}

// Resolve returns the handler responsible for rawURL. It never returns
// nil: the generic handler matches everything.
func (r *Registry) Resolve(rawURL string) Handler {
	for _, h := range r.handlers {
		if h.Matches(rawURL) {
			return h
		}
	}
	return r.fallback
}
