package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const contract = "The tenant shall pay rent monthly. The landlord maintains the roof. " +
	"Either party may terminate with notice. Pets are not allowed"

func TestSentences(t *testing.T) {
	assert.Equal(t, []string{
		"The tenant shall pay rent monthly",
		"The landlord maintains the roof",
		"Either party may terminate with notice",
		"Pets are not allowed",
	}, Sentences(contract))
	assert.Nil(t, Sentences("   "))
}

func TestCloseMatchesCutoffAndLimit(t *testing.T) {
	cands := []string{"abcd", "abce", "abcf", "abcg", "zzzz"}
	got := CloseMatches("abcd", cands, 3, 0.5)
	assert.Equal(t, []string{"abcd", "abce", "abcf"}, got)

	assert.Empty(t, CloseMatches("abcd", []string{"wxyz"}, 3, 0.5))
}

func TestMarkStripsBulletLabel(t *testing.T) {
	r := Mark(contract, "Point 1: The tenant shall pay the rent monthly")
	assert.Contains(t, r.Matches, "The tenant shall pay rent monthly")
	assert.Contains(t, r.HTML, "<mark>The tenant shall pay rent monthly</mark>")
	assert.NotContains(t, r.HTML, "<mark>Pets are not allowed</mark>")
}

func TestMarkEscapesHTML(t *testing.T) {
	r := Mark("Use <b>bold</b> terms. Nothing else here", "Use <b>bold</b> terms")
	assert.Contains(t, r.HTML, "<mark>Use &lt;b&gt;bold&lt;/b&gt; terms</mark>")
	assert.NotContains(t, r.HTML, "<b>")
}

func TestMarkNoMatch(t *testing.T) {
	r := Mark(contract, "Chunk 2: [summary unavailable]")
	assert.Empty(t, r.Matches)
	assert.NotContains(t, r.HTML, "<mark>")
}
