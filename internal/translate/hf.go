package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// hfTranslator calls a hosted opus-mt model through the inference API.
type hfTranslator struct {
	http      *http.Client
	url       string
	token     string
	maxLength int
}

type hfRequest struct {
	Inputs     []string       `json:"inputs"`
	Parameters map[string]int `json:"parameters,omitempty"`
}

func newHFTranslator(client *http.Client, baseURL, model, token string, maxLength int) *hfTranslator {
	return &hfTranslator{
		http:      client,
		url:       strings.TrimRight(baseURL, "/") + "/" + model,
		token:     token,
		maxLength: maxLength,
	}
}

func (h *hfTranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	payload := hfRequest{Inputs: texts}
	if h.maxLength > 0 {
		payload.Parameters = map[string]int{"max_length": h.maxLength}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal hf request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read hf response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hf status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode hf response: %w", err)
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = normalizeHFOutput(item)
	}
	return out, nil
}

type hfTranslation struct {
	TranslationText *string `json:"translation_text"`
}

// normalizeHFOutput accepts {"translation_text": ...}, [{"translation_text": ...}]
// or any other value, which is rendered as its string form.
func normalizeHFOutput(item json.RawMessage) string {
	var one hfTranslation
	if err := json.Unmarshal(item, &one); err == nil && one.TranslationText != nil {
		return *one.TranslationText
	}
	var list []hfTranslation
	if err := json.Unmarshal(item, &list); err == nil && len(list) > 0 && list[0].TranslationText != nil {
		return *list[0].TranslationText
	}
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	return string(item)
}
