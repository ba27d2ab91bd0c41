package entity

// ProviderID identifies a transcript source. The set is closed.
type ProviderID string

const (
	ProviderYoutubei      ProviderID = "youtubei"
	ProviderCaptionTracks ProviderID = "captionTracks"
	ProviderYtDlp         ProviderID = "yt-dlp"
	ProviderApify         ProviderID = "apify"
	ProviderHTML          ProviderID = "html"
	ProviderUnavailable   ProviderID = "unavailable"
	ProviderUnknown       ProviderID = "unknown"
)

var knownProviders = map[ProviderID]struct{}{
	ProviderYoutubei:      {},
	ProviderCaptionTracks: {},
	ProviderYtDlp:         {},
	ProviderApify:         {},
	ProviderHTML:          {},
	ProviderUnavailable:   {},
	ProviderUnknown:       {},
}

// ParseProviderID maps a raw string onto the closed set. Anything unrecognised
// becomes ProviderUnknown.
func ParseProviderID(raw string) ProviderID {
	id := ProviderID(raw)
	if _, ok := knownProviders[id]; ok {
		return id
	}
	return ProviderUnknown
}

// Ptr returns a pointer to a copy of id, for optional fields.
func (id ProviderID) Ptr() *ProviderID {
	return &id
}

// ProviderContext is the read-only input shared by every provider attempt for
// one URL.
type ProviderContext struct {
	URL string
	// HTML is the page body fetched once up front, nil if that fetch failed.
	HTML *string
	// ResourceKey is a provider-specific identifier, e.g. a YouTube video id.
	ResourceKey *string
}

// HTMLString returns the page HTML or "".
func (c ProviderContext) HTMLString() string {
	if c.HTML == nil {
		return ""
	}
	return *c.HTML
}

// TranscriptResolution is what a single provider returns.
// A nil Text with no error is a normal "nothing here" outcome.
type TranscriptResolution struct {
	Text     *string
	Source   *ProviderID
	Metadata map[string]any
}

// TranscriptDiagnostics records the providers tried for one URL, in trial order.
// When Provider is set it equals the last element of AttemptedProviders.
type TranscriptDiagnostics struct {
	TextProvided       bool         `json:"text_provided"`
	Provider           *ProviderID  `json:"provider"`
	AttemptedProviders []ProviderID `json:"attempted_providers"`
	Notes              string       `json:"notes,omitempty"`
}
