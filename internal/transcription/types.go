package transcription

import "strings"

type ItemType string

const (
	ItemTypeWord        ItemType = "word"
	ItemTypePunctuation ItemType = "punctuation"
)

// Item is one recognized token within the current utterance.
type Item struct {
	Type    ItemType
	Content string
}

// Result is one recognition hypothesis. Items and Transcript are cumulative
// for the current utterance; IsPartial is false once the recognizer has
// finalized it.
type Result struct {
	Transcript string
	Items      []Item
	IsPartial  bool
}

// SessionConfig declares one recognizer invocation.
type SessionConfig struct {
	LanguageCode      string
	SampleRateHertz   int32
	VocabularyName    string
	StabilizePartials bool
}

// ItemsToText reconstructs an utterance from its items: word tokens joined by
// single spaces, punctuation attached without a preceding space.
func ItemsToText(items []Item) string {
	var b strings.Builder
	for _, item := range items {
		if item.Type == ItemTypePunctuation {
			b.WriteString(item.Content)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(item.Content)
	}
	return b.String()
}
