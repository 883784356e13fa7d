package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// MaxTextLength is the longest text the free endpoint accepts in one call.
const MaxTextLength = 5000

// GoogleTranslator calls the public Google Translate "single" endpoint.
type GoogleTranslator struct {
	http   *resty.Client
	source string
	target string
	logger *slog.Logger
}

// NewGoogleTranslator creates a translator against cfg.Endpoint.
func NewGoogleTranslator(cfg config.TranslateConfig, userAgent string, logger *slog.Logger) *GoogleTranslator {
	client := resty.New()
	client.SetBaseURL(cfg.Endpoint)
	client.SetTimeout(cfg.Timeout)
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}

	return &GoogleTranslator{
		http:   client,
		source: cfg.Source,
		target: cfg.Target,
		logger: logger.With("component", "google_translator"),
	}
}

// Translate returns text translated from the source to the target language.
func (g *GoogleTranslator) Translate(ctx context.Context, text string) (string, error) {
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", &types.TranslateError{Text: text, Err: types.ErrTextTooLong}
	}

	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     g.source,
			"tl":     g.target,
			"dt":     "t",
		}).
		SetQueryParam("q", text).
		Get("/translate_a/single")
	if err != nil {
		return "", &types.TranslateError{Text: text, Err: err}
	}
	if resp.IsError() {
		return "", &types.TranslateError{
			Text:       text,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}

	translated, err := parseSingle(resp.Body())
	if err != nil {
		return "", &types.TranslateError{Text: text, StatusCode: resp.StatusCode(), Err: err}
	}
	return translated, nil
}

// parseSingle joins the translated segments of a response shaped like
// [[["Hello","Salut",...],["world","lume",...]], null, "ro", ...].
func parseSingle(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no translated segments")
	}
	return sb.String(), nil
}
