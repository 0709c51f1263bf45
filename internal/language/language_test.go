package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"EN-us", "en"},
		{"pt_BR", "pt"},
		{"eng", "en"},
		{"fra", "fr"},
		{"English", "en"},
		{"german", "de"},
		{"", ""},
		{"unknown", ""},
		{"not a language", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.want {
				t.Fatalf("ToISO2(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeFallsBackToUnknown(t *testing.T) {
	if got := Normalize("es-419"); got != "es" {
		t.Fatalf("Normalize(es-419) = %q", got)
	}
	if got := Normalize("??"); got != Unknown {
		t.Fatalf("Normalize(??) = %q, want %q", got, Unknown)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":      "English",
		"nl-BE":   "Dutch",
		"unknown": "Unknown",
		"":        "Unknown",
		"tlh":     "TLH",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}
