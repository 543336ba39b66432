// Package lang provides lightweight statistical language identification
// for prompt language enforcement and response self-checks.
package lang

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Auto is the wildcard language preference: respond in the input language
const Auto = "auto"

// minDetectLen guards against classifying fragments too short to carry
// a trigram signal
const minDetectLen = 20

// Detect returns the ISO 639-1 code of the dominant language in text,
// or empty when the text is too short or the detection is unreliable.
func Detect(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < minDetectLen {
		return ""
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// Match reports whether two language codes refer to the same language.
// Empty codes and Auto match anything.
func Match(a, b string) bool {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return true
	}
	return a == b
}

func normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == Auto {
		return ""
	}
	// Tolerate region-qualified tags like en-US
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// names maps common ISO 639-1 codes to English language names for
// prompt construction
var names = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "nl": "Dutch", "pl": "Polish",
	"ru": "Russian", "uk": "Ukrainian", "cs": "Czech", "sk": "Slovak",
	"sv": "Swedish", "da": "Danish", "no": "Norwegian", "fi": "Finnish",
	"tr": "Turkish", "ar": "Arabic", "he": "Hebrew", "hi": "Hindi",
	"zh": "Chinese", "ja": "Japanese", "ko": "Korean", "el": "Greek",
	"hu": "Hungarian", "ro": "Romanian", "bg": "Bulgarian", "sl": "Slovenian",
	"hr": "Croatian", "sr": "Serbian", "vi": "Vietnamese", "th": "Thai",
	"id": "Indonesian",
}

// Name returns a human-readable label for a language code, falling back
// to the code itself for languages outside the table
func Name(code string) string {
	if n, ok := names[normalize(code)]; ok {
		return n
	}
	return code
}
