package summarize

import "strings"

// tokenChunks splits tokens into consecutive non-overlapping slices of at most size tokens
// and decodes each back to text.
func tokenChunks(tok Tokenizer, tokens []int, size int) []string {
	if size <= 0 {
		size = len(tokens)
	}
	var out []string
	for i := 0; i < len(tokens); i += size {
		end := min(i+size, len(tokens))
		out = append(out, tok.Decode(tokens[i:end]))
	}
	return out
}

// ChunkText splits text into trimmed chunks of at most maxChars runes.
// A cut snaps back to the last line break inside the bound when there is one.
// Blank chunks are dropped.
func ChunkText(text string, maxChars int) []string {
	r := []rune(text)
	var chunks []string
	add := func(s []rune) {
		if c := strings.TrimSpace(string(s)); c != "" {
			chunks = append(chunks, c)
		}
	}
	if maxChars <= 0 {
		add(r)
		return chunks
	}
	for len(r) > maxChars {
		split := lastNewline(r[:maxChars])
		if split <= 0 {
			split = maxChars
		}
		add(r[:split])
		r = r[split:]
	}
	add(r)
	return chunks
}

func lastNewline(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == '\n' {
			return i
		}
	}
	return -1
}
