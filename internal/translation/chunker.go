package translation

import (
	"strings"

	"github.com/eleven-am/relay-backend/internal/transcription"
)

// flushWordThreshold bounds how much untranslated text may accumulate before
// a translation call is forced, independent of punctuation.
const flushWordThreshold = 40

var sentenceEnders = []rune{'.', '!', '?', '。', '！', '？'}

// Chunker accumulates newly recognized items across cumulative recognizer
// results and decides when enough text has gathered to justify a translation
// call. State is scoped to one pipeline run.
//
// Translated output is always emitted as final: partial translations of a
// partial transcript are unreliable across languages with different word
// order, so only whole accumulated chunks are ever translated.
type Chunker struct {
	untranslated       strings.Builder
	lastProcessedIndex int
}

func NewChunker() *Chunker {
	return &Chunker{}
}

// Feed folds one recognizer result into the buffer and reports whether to
// flush. The returned text is the trimmed accumulated chunk to translate;
// ok is false while the buffer should keep growing. An empty buffer never
// flushes.
func (c *Chunker) Feed(items []transcription.Item, isPartial bool) (string, bool) {
	// The recognizer restarted its utterance; every item is new again.
	if len(items) < c.lastProcessedIndex {
		c.lastProcessedIndex = 0
	}

	newItems := items[c.lastProcessedIndex:]
	c.lastProcessedIndex = len(items)

	for _, item := range newItems {
		if item.Type == transcription.ItemTypePunctuation {
			c.untranslated.WriteString(item.Content)
			continue
		}
		c.untranslated.WriteByte(' ')
		c.untranslated.WriteString(item.Content)
	}

	text := strings.TrimSpace(c.untranslated.String())
	if text == "" {
		return "", false
	}

	if hasSentenceEnd(text) || wordCount(text) >= flushWordThreshold || !isPartial {
		return text, true
	}
	return "", false
}

// Clear discards the accumulated buffer after a successful translation.
func (c *Chunker) Clear() {
	c.untranslated.Reset()
}

func hasSentenceEnd(s string) bool {
	return strings.ContainsAny(s, string(sentenceEnders))
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
