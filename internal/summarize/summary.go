// Package summarize turns extracted document text into a paragraph summary
// or an ordered list of bullet summaries.
package summarize

import "strings"

// Status tells callers how a summary was produced.
type Status int

const (
	StatusOK Status = iota
	StatusNoText
	StatusUnavailable
	StatusNoSummary
	StatusFailed
)

// Fixed messages carried by non-OK summaries.
const (
	MsgNoText      = "No text provided for summarization."
	MsgUnavailable = "Summarization service is currently unavailable."
	MsgNoSummary   = "Could not generate any intermediate summaries from the document chunks."
	MsgFailed      = "Summarization failed due to a processing error or resource issue."
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoText:
		return "no_text"
	case StatusUnavailable:
		return "unavailable"
	case StatusNoSummary:
		return "no_summary"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Summary is a summarization result. Text always holds something printable.
type Summary struct {
	Text   string
	Status Status
}

func (s Summary) OK() bool { return s.Status == StatusOK }

func result(st Status) Summary {
	switch st {
	case StatusNoText:
		return Summary{Text: MsgNoText, Status: st}
	case StatusUnavailable:
		return Summary{Text: MsgUnavailable, Status: st}
	case StatusNoSummary:
		return Summary{Text: MsgNoSummary, Status: st}
	default:
		return Summary{Text: MsgFailed, Status: StatusFailed}
	}
}

const bulletSep = "\n"

// JoinBullets is the stored form of a bullet list.
func JoinBullets(bullets []string) string { return strings.Join(bullets, bulletSep) }

// SplitBullets reverses JoinBullets.
func SplitBullets(stored string) []string {
	if stored == "" {
		return nil
	}
	return strings.Split(stored, bulletSep)
}

// singleLine collapses all whitespace runs so a bullet never spans lines.
func singleLine(s string) string { return strings.Join(strings.Fields(s), " ") }
