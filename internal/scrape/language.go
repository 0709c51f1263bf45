package scrape

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minDetectChars is the shortest text handed to the detector.
const minDetectChars = 200

// LanguageDetector identifies the language of article text as an ISO 639-1 code.
type LanguageDetector interface {
	Detect(text string) string
}

// LinguaDetector detects languages with lingua over a fixed set of common languages.
// The underlying models are built on first use.
type LinguaDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLinguaDetector returns a lazily initialised detector.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{}
}

// Detect returns the lowercase ISO 639-1 code, or "" when undetermined.
func (d *LinguaDetector) Detect(text string) string {
	if len(strings.TrimSpace(text)) < minDetectChars {
		return ""
	}
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.French,
				lingua.German,
				lingua.Spanish,
				lingua.Portuguese,
				lingua.Italian,
				lingua.Dutch,
			).
			Build()
	})
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
