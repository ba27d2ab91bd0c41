package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

// LengthKind distinguishes preset summary lengths from explicit character targets.
type LengthKind string

const (
	LengthPreset LengthKind = "preset"
	LengthChars  LengthKind = "chars"
)

// LengthArg is a parsed --length value.
type LengthArg struct {
	Kind          LengthKind
	Preset        string
	MaxCharacters int
}

// summaryLengthPresets maps preset names to target summary sizes in characters.
var summaryLengthPresets = map[string]int{
	"short":  900,
	"medium": 1800,
	"long":   4200,
	"xl":     9000,
	"xxl":    17000,
}

var lengthAliases = map[string]string{
	"s": "short",
	"m": "medium",
	"l": "long",
}

// TargetCharacters returns the summary size the length argument asks for.
func (l LengthArg) TargetCharacters() int {
	if l.Kind == LengthChars {
		return l.MaxCharacters
	}
	return summaryLengthPresets[l.Preset]
}

func (l LengthArg) String() string {
	if l.Kind == LengthChars {
		return strconv.Itoa(l.MaxCharacters)
	}
	return l.Preset
}

// ResolvedRunSettings is the immutable settings snapshot for one run.
type ResolvedRunSettings struct {
	Length          LengthArg
	Firecrawl       FirecrawlMode
	Markdown        MarkdownMode
	Preprocess      PreprocessMode
	Transcript      TranscriptMode
	Timeout         time.Duration
	Retries         int
	MaxOutputTokens int // 0 means derive from Length
}

// RunOverrides carries optional per-run overrides. Nil fields leave the base value alone.
type RunOverrides struct {
	Firecrawl       *FirecrawlMode
	Markdown        *MarkdownMode
	Preprocess      *PreprocessMode
	Transcript      *TranscriptMode
	Timeout         *time.Duration
	Retries         *int
	MaxOutputTokens *int
}

// CLIRunInput holds raw flag values. Empty strings mean "not provided".
type CLIRunInput struct {
	Length          string
	Firecrawl       string
	Format          string // text or markdown
	MarkdownMode    string
	Preprocess      string
	Youtube         string
	Timeout         string
	Retries         string
	MaxOutputTokens string
}

const (
	maxRetries      = 10
	minTimeout      = time.Millisecond
	maxTimeout      = time.Hour
	maxOutputTokens = 200_000
)

// DefaultRunSettings returns the settings used when nothing is configured.
func DefaultRunSettings() ResolvedRunSettings {
	return ResolvedRunSettings{
		Length:     LengthArg{Kind: LengthPreset, Preset: "xl"},
		Firecrawl:  FirecrawlAuto,
		Markdown:   MarkdownOff,
		Preprocess: PreprocessAuto,
		Transcript: TranscriptAuto,
		Timeout:    2 * time.Minute,
		Retries:    1,
	}
}

// ParseLength parses a --length value: a preset name (short, medium, long, xl, xxl)
// or a character count such as "1500" or "20k".
func ParseLength(raw string) (LengthArg, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := lengthAliases[value]; ok {
		value = alias
	}
	if _, ok := summaryLengthPresets[value]; ok {
		return LengthArg{Kind: LengthPreset, Preset: value}, nil
	}

	chars, err := parseCount(value)
	if err != nil || chars <= 0 {
		return LengthArg{}, fmt.Errorf("%w: unsupported --length value %q (use short|medium|long|xl|xxl or a character count)", ErrInvalidSetting, raw)
	}
	return LengthArg{Kind: LengthChars, MaxCharacters: chars}, nil
}

// ParseDuration parses a timeout such as "10ms", "2s", "1m". A bare number is seconds.
func ParseDuration(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrInvalidSetting)
	}

	var d time.Duration
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		d = time.Duration(seconds * float64(time.Second))
	} else {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("%w: unsupported duration %q (expected e.g. 30s, 2m, 500ms)", ErrInvalidSetting, raw)
		}
		d = parsed
	}

	if err := pkgconfig.ValidateDurationRange(d, minTimeout, maxTimeout); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return d, nil
}

// ParseRetries parses a --retries value (0-10).
func ParseRetries(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > maxRetries {
		return 0, fmt.Errorf("%w: unsupported --retries value %q (expected 0-%d)", ErrInvalidSetting, raw, maxRetries)
	}
	return n, nil
}

// ParseMaxOutputTokens parses a --max-output-tokens value such as "2000" or "4k".
// An empty value means "derive from the summary length" and returns 0.
func ParseMaxOutputTokens(raw string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return 0, nil
	}
	n, err := parseCount(value)
	if err != nil || n <= 0 || n > maxOutputTokens {
		return 0, fmt.Errorf("%w: unsupported --max-output-tokens value %q", ErrInvalidSetting, raw)
	}
	return n, nil
}

// ResolveCLIRunSettings applies raw flag values on top of base. Any invalid value
// is an error: flags are explicit user input.
func ResolveCLIRunSettings(in CLIRunInput, base ResolvedRunSettings) (ResolvedRunSettings, error) {
	out := base
	var err error

	if in.Length != "" {
		if out.Length, err = ParseLength(in.Length); err != nil {
			return base, err
		}
	}
	if in.Firecrawl != "" {
		if out.Firecrawl, err = ParseFirecrawlMode(in.Firecrawl); err != nil {
			return base, err
		}
	}

	switch strings.ToLower(strings.TrimSpace(in.Format)) {
	case "":
	case "text":
		out.Markdown = MarkdownOff
	case "markdown", "md":
		mode := in.MarkdownMode
		if mode == "" {
			mode = string(MarkdownReadability)
		}
		if out.Markdown, err = ParseMarkdownMode(mode); err != nil {
			return base, err
		}
	default:
		return base, fmt.Errorf("%w: unsupported --format value %q (expected text or markdown)", ErrInvalidSetting, in.Format)
	}

	if in.Preprocess != "" {
		if out.Preprocess, err = ParsePreprocessMode(in.Preprocess); err != nil {
			return base, err
		}
	}
	if in.Youtube != "" {
		if out.Transcript, err = ParseTranscriptMode(in.Youtube); err != nil {
			return base, err
		}
	}
	if in.Timeout != "" {
		if out.Timeout, err = ParseDuration(in.Timeout); err != nil {
			return base, err
		}
	}
	if in.Retries != "" {
		if out.Retries, err = ParseRetries(in.Retries); err != nil {
			return base, err
		}
	}
	if in.MaxOutputTokens != "" {
		if out.MaxOutputTokens, err = ParseMaxOutputTokens(in.MaxOutputTokens); err != nil {
			return base, err
		}
	}
	return out, nil
}

// ResolveRunOverrides converts loosely typed values (config file, daemon requests)
// into overrides. Values that do not parse are dropped rather than reported.
func ResolveRunOverrides(raw map[string]any) RunOverrides {
	var out RunOverrides

	if s, ok := raw["firecrawl"].(string); ok {
		if mode, err := ParseFirecrawlMode(s); err == nil {
			out.Firecrawl = &mode
		}
	}
	if s, ok := raw["markdownMode"].(string); ok {
		if mode, err := ParseMarkdownMode(s); err == nil {
			out.Markdown = &mode
		}
	}
	if s, ok := raw["preprocess"].(string); ok {
		if mode, err := ParsePreprocessMode(s); err == nil {
			out.Preprocess = &mode
		}
	}
	if s, ok := raw["youtube"].(string); ok {
		if mode, err := ParseTranscriptMode(s); err == nil {
			out.Transcript = &mode
		}
	}

	switch v := raw["timeout"].(type) {
	case string:
		if d, err := ParseDuration(v); err == nil {
			out.Timeout = &d
		}
	default:
		if n, ok := positiveNumber(v); ok {
			d := time.Duration(n) * time.Millisecond
			out.Timeout = &d
		}
	}

	switch v := raw["retries"].(type) {
	case string:
		if n, err := ParseRetries(v); err == nil {
			out.Retries = &n
		}
	default:
		if n, ok := wholeNumber(v); ok && n >= 0 && n <= maxRetries {
			out.Retries = &n
		}
	}

	switch v := raw["maxOutputTokens"].(type) {
	case string:
		if n, err := ParseMaxOutputTokens(v); err == nil && n > 0 {
			out.MaxOutputTokens = &n
		}
	default:
		if n, ok := positiveNumber(v); ok {
			out.MaxOutputTokens = &n
		}
	}

	return out
}

// ApplyOverrides returns a copy of base with every non-nil override applied.
func ApplyOverrides(base ResolvedRunSettings, o RunOverrides) ResolvedRunSettings {
	out := base
	if o.Firecrawl != nil {
		out.Firecrawl = *o.Firecrawl
	}
	if o.Markdown != nil {
		out.Markdown = *o.Markdown
	}
	if o.Preprocess != nil {
		out.Preprocess = *o.Preprocess
	}
	if o.Transcript != nil {
		out.Transcript = *o.Transcript
	}
	if o.Timeout != nil {
		out.Timeout = *o.Timeout
	}
	if o.Retries != nil {
		out.Retries = *o.Retries
	}
	if o.MaxOutputTokens != nil {
		out.MaxOutputTokens = *o.MaxOutputTokens
	}
	return out
}

// parseCount parses "1500", "1.5k" or "2m" style counts.
func parseCount(value string) (int, error) {
	multiplier := 1.0
	switch {
	case strings.HasSuffix(value, "k"):
		multiplier = 1_000
		value = strings.TrimSuffix(value, "k")
	case strings.HasSuffix(value, "m"):
		multiplier = 1_000_000
		value = strings.TrimSuffix(value, "m")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	return int(math.Floor(f * multiplier)), nil
}

func positiveNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n > 0
	case int64:
		return int(n), n > 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
			return 0, false
		}
		return int(math.Floor(n)), n >= 1
	}
	return 0, false
}

func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
