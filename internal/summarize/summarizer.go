package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/local/docsummarizer/internal/ai"
	cfgpkg "github.com/local/docsummarizer/internal/config"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/rs/zerolog/log"
)

const systemPrompt = `You summarize legal and business documents.

Rules:
- Keep parties, obligations, amounts, dates and deadlines.
- Neutral tone, no opinions, no legal advice.
- Plain prose, no headings, no lists.
- Answer in the language of the document.`

// Generator is a text-in/text-out model call.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (ai.Response, error)
}

type bounds struct{ min, max int }

// Summarizer runs the chunk-and-reduce pipeline over a Generator.
type Summarizer struct {
	gen  Generator
	tok  Tokenizer
	conf cfgpkg.SummarizerConfig
}

// New returns a Summarizer. A nil generator or tokenizer makes every call
// report StatusUnavailable.
func New(conf cfgpkg.SummarizerConfig, gen Generator, tok Tokenizer) *Summarizer {
	if conf.MaxInputTokens <= 0 {
		conf.MaxInputTokens = 1024
	}
	if conf.SafetyTokens < 0 || conf.SafetyTokens >= conf.MaxInputTokens {
		conf.SafetyTokens = 0
	}
	if conf.MaxReducePasses <= 0 {
		conf.MaxReducePasses = 4
	}
	if conf.BulletChunkChars <= 0 {
		conf.BulletChunkChars = 2000
	}
	return &Summarizer{gen: gen, tok: tok, conf: conf}
}

// Available reports whether the model and tokenizer are usable.
func (s *Summarizer) Available() bool {
	if s.gen == nil || s.tok == nil {
		return false
	}
	if r, ok := s.gen.(interface{ Ready() bool }); ok {
		return r.Ready()
	}
	return true
}

func (s *Summarizer) chunkSize() int { return s.conf.MaxInputTokens - s.conf.SafetyTokens }

// Summarize produces one paragraph summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) Summary {
	var sum Summary
	switch {
	case !s.Available():
		sum = result(StatusUnavailable)
	case strings.TrimSpace(text) == "":
		sum = result(StatusNoText)
	default:
		sum = s.reduce(ctx, text, bounds{s.conf.MinLength, s.conf.MaxLength}, 0)
	}
	mpkg.IncSummary("simple", sum.Status.String())
	return sum
}

// SummarizeToBullets summarizes text chunk by chunk, one bullet per chunk in order.
// A chunk that cannot be summarized keeps its position as a placeholder bullet.
func (s *Summarizer) SummarizeToBullets(ctx context.Context, text string) ([]string, Status) {
	if !s.Available() {
		mpkg.IncSummary("bullets", StatusUnavailable.String())
		return nil, StatusUnavailable
	}
	chunks := ChunkText(text, s.conf.BulletChunkChars)
	if len(chunks) == 0 {
		mpkg.IncSummary("bullets", StatusNoText.String())
		return nil, StatusNoText
	}

	b := bounds{s.conf.BulletMinLength, s.conf.BulletMaxLength}
	bullets := make([]string, 0, len(chunks))
	failed := 0
	for i, chunk := range chunks {
		sum := s.reduce(ctx, chunk, b, 0)
		line := singleLine(sum.Text)
		if !sum.OK() || line == "" {
			failed++
			mpkg.IncChunkFailure("bullet")
			log.Warn().Int("chunk", i+1).Int("chunks", len(chunks)).Str("status", sum.Status.String()).Msg("bullet chunk failed to summarize")
			bullets = append(bullets, fmt.Sprintf("Chunk %d: [summary unavailable]", i+1))
			continue
		}
		bullets = append(bullets, fmt.Sprintf("Point %d: %s", i+1, line))
	}

	st := StatusOK
	if failed == len(chunks) {
		st = StatusNoSummary
	}
	mpkg.IncSummary("bullets", st.String())
	return bullets, st
}

// reduce summarizes text directly when it fits the model and otherwise maps
// over token chunks and recurses on the joined chunk summaries.
func (s *Summarizer) reduce(ctx context.Context, text string, b bounds, pass int) Summary {
	tokens := s.tok.Encode(text)
	if len(tokens) <= s.conf.MaxInputTokens {
		return s.direct(ctx, text, b)
	}
	if pass >= s.conf.MaxReducePasses {
		log.Warn().Int("pass", pass).Int("tokens", len(tokens)).Msg("reduce pass limit reached, truncating")
		return s.direct(ctx, s.tok.Decode(tokens[:s.chunkSize()]), b)
	}

	chunks := tokenChunks(s.tok, tokens, s.chunkSize())
	log.Debug().Int("pass", pass).Int("chunks", len(chunks)).Int("tokens", len(tokens)).Msg("map-reduce pass")

	var partials []string
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		sum := s.direct(ctx, chunk, b)
		if !sum.OK() {
			mpkg.IncChunkFailure("map")
			log.Warn().Int("chunk", i+1).Int("pass", pass).Msg("chunk failed to summarize")
			continue
		}
		partials = append(partials, sum.Text)
	}
	if len(partials) == 0 {
		return result(StatusNoSummary)
	}

	combined := strings.Join(partials, " ")
	if n := len(s.tok.Encode(combined)); n >= len(tokens) {
		log.Warn().Int("pass", pass).Int("before", len(tokens)).Int("after", n).Msg("reduce pass did not shrink text, truncating")
		return s.direct(ctx, s.tok.Decode(s.tok.Encode(combined)[:s.chunkSize()]), b)
	}
	return s.reduce(ctx, combined, b, pass+1)
}

// direct makes exactly one model call.
func (s *Summarizer) direct(ctx context.Context, text string, b bounds) Summary {
	resp, err := s.gen.Generate(ctx, ai.Request{
		SystemPrompt:    systemPrompt,
		Text:            prompt(text, b),
		MaxOutputTokens: int64(b.max) * 2,
	})
	if err != nil {
		log.Warn().Err(err).Msg("summarization call failed")
		return result(StatusFailed)
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" {
		return result(StatusFailed)
	}
	return Summary{Text: out, Status: StatusOK}
}

func prompt(text string, b bounds) string {
	var sb strings.Builder
	if b.max > 0 {
		fmt.Fprintf(&sb, "Summarize the document below in %d to %d words.\n\n", b.min, b.max)
	} else {
		sb.WriteString("Summarize the document below.\n\n")
	}
	sb.WriteString("Document:\n")
	sb.WriteString(text)
	return sb.String()
}
