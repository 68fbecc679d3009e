package ua

// LocalizedText is human readable text with an optional locale.
type LocalizedText struct {
	Text   string
	Locale string
}

// NewLocalizedText makes a LocalizedText.
func NewLocalizedText(text, locale string) LocalizedText {
	return LocalizedText{text, locale}
}

func (t LocalizedText) String() string {
	return t.Text
}
