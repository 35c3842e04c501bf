package handlers

import "testing"

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#Seoul", "seoul"},
		{"  #Brunch  ", "brunch"},
		{"CAFE", "cafe"},
		{"# spaced tag ", "spaced tag"},
		{"#", ""},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeKeyword(tt.in); got != tt.want {
			t.Errorf("normalizeKeyword(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegexEscape(t *testing.T) {
	if got := regexEscape("c++"); got != `c\+\+` {
		t.Errorf("regexEscape(c++) = %q", got)
	}
	if got := regexEscape("plain"); got != "plain" {
		t.Errorf("regexEscape(plain) = %q", got)
	}
	if got := regexEscape("a.b"); got != `a\.b` {
		t.Errorf("regexEscape(a.b) = %q", got)
	}
}
