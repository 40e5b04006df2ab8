// Package translate resolves a translation backend per target language and
// runs summaries through it.
package translate

import "context"

// Sentinel replaces a unit that could not be translated.
const Sentinel = "[translation unavailable]"

// Kind tags the shape of a Backend.
type Kind int

const (
	// KindSpecialized backends translate a batch of units per call.
	KindSpecialized Kind = iota + 1
	// KindSimple backends translate one unit per call and are retried.
	KindSimple
)

func (k Kind) String() string {
	switch k {
	case KindSpecialized:
		return "specialized"
	case KindSimple:
		return "simple"
	}
	return "unknown"
}

// BatchTranslator returns one output per input, in order.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// TextTranslator translates a single unit.
type TextTranslator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Backend is a resolved translation strategy for one language.
type Backend struct {
	Kind Kind
	// Name identifies the service, e.g. "huggingface", "aws", "google".
	Name string
	Lang string

	batch  BatchTranslator
	single TextTranslator
}

func Specialized(name, lang string, t BatchTranslator) *Backend {
	return &Backend{Kind: KindSpecialized, Name: name, Lang: lang, batch: t}
}

func Simple(name, lang string, t TextTranslator) *Backend {
	return &Backend{Kind: KindSimple, Name: name, Lang: lang, single: t}
}
