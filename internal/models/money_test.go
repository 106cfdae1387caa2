package models

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"5000", 5000},
		{"5 000", 5000},
		{"5 000", 5000},
		{"12abc", 12},
		{"-300", -300},
		{"+42", 42},
		{"abc", 0},
		{"", 0},
		{"000123", 123},
		{"999999999999999999", 999999999999999999},
		{"1000000000000000000", 0},
		{"123456789012345678901234", 0},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.value); got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestSanitizeAmount(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"1 500", "1500"},
		{"-10", "0"},
		{"nope", "0"},
		{"99999999999999999999", "0"},
	}

	for _, tt := range tests {
		if got := SanitizeAmount(tt.value); got != tt.want {
			t.Errorf("SanitizeAmount(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
