package summarize

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer measures and slices text in model tokens.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct{ enc *tiktoken.Tiktoken }

// NewTiktoken loads a BPE encoding such as "cl100k_base".
func NewTiktoken(encoding string) (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding %q: %w", encoding, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int { return t.enc.Encode(text, nil, nil) }
func (t *tiktokenTokenizer) Decode(tokens []int) string { return t.enc.Decode(tokens) }
