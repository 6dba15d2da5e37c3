package validation

import "testing"

func TestIsValidIdentifierChar(t *testing.T) {
	valid := []rune{'a', 'z', 'A', 'Z', '0', '9', '-', '_'}
	for _, ch := range valid {
		if !IsValidIdentifierChar(ch) {
			t.Errorf("IsValidIdentifierChar(%q) = false, want true", ch)
		}
	}

	invalid := []rune{' ', '.', '/', '\\', '$', 'é', '\t', 0}
	for _, ch := range invalid {
		if IsValidIdentifierChar(ch) {
			t.Errorf("IsValidIdentifierChar(%q) = true, want false", ch)
		}
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "simple name", in: "sales-cleanup", want: true},
		{name: "underscores and digits", in: "run_2024_01", want: true},
		{name: "empty", in: "", want: false},
		{name: "spaces", in: "bad name", want: false},
		{name: "path characters", in: "../escape", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidName(tt.in); got != tt.want {
				t.Errorf("ValidName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidSQLIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "plain word", in: "cellwise_log", want: true},
		{name: "leading underscore", in: "_internal", want: true},
		{name: "digits after first", in: "log2", want: true},
		{name: "empty", in: "", want: false},
		{name: "leading digit", in: "2log", want: false},
		{name: "hyphen", in: "cellwise-log", want: false},
		{name: "quote injection", in: `x" (drop)`, want: false},
		{name: "semicolon", in: "x;drop", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSQLIdentifier(tt.in); got != tt.want {
				t.Errorf("ValidSQLIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
