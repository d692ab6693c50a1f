package shared

// LanguageCode is a BCP 47 style language tag as accepted by the recognizer
// and the translation provider, e.g. "en-US" or "et-EE".
type LanguageCode string

const (
	LanguageEnglishUS LanguageCode = "en-US"
	LanguageEstonian  LanguageCode = "et-EE"
	LanguageLatvian   LanguageCode = "lv-LV"
	LanguageLithuania LanguageCode = "lt-LT"
	LanguageRussian   LanguageCode = "ru-RU"
	LanguageHindi     LanguageCode = "hi-IN"
)

func (l LanguageCode) String() string {
	return string(l)
}

// IsSet reports whether a target language was actually selected. An unset or
// source-equal target means pass-through, no translation.
func (l LanguageCode) IsSet() bool {
	return l != ""
}
