package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// fallbackCodes maps codes the public endpoint spells differently.
var fallbackCodes = map[string]string{
	"zh":    "zh-CN",
	"zh-cn": "zh-CN",
	"zh-tw": "zh-TW",
	"he":    "iw",
}

func fallbackCode(lang string) string {
	if c, ok := fallbackCodes[lang]; ok {
		return c
	}
	return lang
}

// googleTranslator uses the free public translate endpoint.
type googleTranslator struct {
	http    *http.Client
	baseURL string
	target  string
}

func newGoogleTranslator(client *http.Client, baseURL, lang string) *googleTranslator {
	return &googleTranslator{http: client, baseURL: baseURL, target: fallbackCode(lang)}
}

func (g *googleTranslator) Translate(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", g.target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate status %d", resp.StatusCode)
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse joins the translated segments of [[["seg","src",...],...],...].
func parseGoogleResponse(body []byte) (string, error) {
	var result []interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode google response: %w", err)
	}
	if len(result) == 0 {
		return "", errors.New("empty google response")
	}
	segments, ok := result[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected google response shape")
	}
	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no translated text in google response")
	}
	return sb.String(), nil
}
