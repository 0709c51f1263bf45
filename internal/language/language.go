package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

// Unknown is stored when no language could be determined.
const Unknown = "unknown"

type entry struct {
	code2   string
	display string
	word    string
}

var languages = []entry{
	{"en", "English", "english"},
	{"es", "Spanish", "spanish"},
	{"fr", "French", "french"},
	{"de", "German", "german"},
	{"it", "Italian", "italian"},
	{"pt", "Portuguese", "portuguese"},
	{"nl", "Dutch", "dutch"},
	{"ja", "Japanese", "japanese"},
	{"ko", "Korean", "korean"},
	{"zh", "Chinese", "chinese"},
	{"ru", "Russian", "russian"},
	{"pl", "Polish", "polish"},
	{"sv", "Swedish", "swedish"},
}

var (
	byCode2 = make(map[string]*entry, len(languages))
	byWord  = make(map[string]*entry, len(languages))
)

func init() {
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byWord[e.word] = e
	}
}

// ToISO2 converts a BCP 47 tag ("en-US", "pt_BR"), an ISO 639-2 code ("eng")
// or an English language name ("english") to its ISO 639-1 code. It returns
// "" for input it cannot interpret.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Unknown {
		return ""
	}
	if e, ok := byWord[code]; ok {
		return e.code2
	}
	tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	iso := base.String()
	if len(iso) != 2 {
		return ""
	}
	return iso
}

// Normalize returns the ISO 639-1 form of code, or Unknown.
func Normalize(code string) string {
	if iso := ToISO2(code); iso != "" {
		return iso
	}
	return Unknown
}

// DisplayName returns a human-readable name for code, falling back to the
// uppercased code.
func DisplayName(code string) string {
	iso := ToISO2(code)
	if iso == "" {
		if strings.TrimSpace(code) == "" || strings.EqualFold(strings.TrimSpace(code), Unknown) {
			return "Unknown"
		}
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if e, ok := byCode2[iso]; ok {
		return e.display
	}
	return strings.ToUpper(iso)
}
