package util

import (
	"testing"
)

func TestParseDiscountPercent(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"-50%", 50},
		{" - 75 % ", 75},
		{"-100%", 100},
		{"50%", 0},
		{"", 0},
		{"Free", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseDiscountPercent(tt.input); got != tt.want {
				t.Errorf("ParseDiscountPercent(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLeadingID(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"367520", 367520, true},
		{"367520,1234", 367520, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{"0", 0, false},
		{"12a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLeadingID(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLeadingID(%q) = %d, %v, want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCleanWhitespace(t *testing.T) {
	if got := CleanWhitespace("  188.000₫ \n\t  "); got != "188.000₫" {
		t.Errorf("CleanWhitespace() = %q", got)
	}
	if got := CleanWhitespace("Hollow   Knight"); got != "Hollow Knight" {
		t.Errorf("CleanWhitespace() = %q", got)
	}
}

func TestAppURL(t *testing.T) {
	if got := AppURL(367520); got != "https://store.steampowered.com/app/367520/" {
		t.Errorf("AppURL() = %s", got)
	}
}

func TestHostAllowed(t *testing.T) {
	allowed := []string{"store.steampowered.com"}

	tests := []struct {
		name    string
		input   string
		allowed []string
		wantErr bool
	}{
		{name: "Allowed host", input: "https://store.steampowered.com/search/results/", allowed: allowed},
		{name: "Host is case insensitive", input: "https://Store.SteamPowered.com/api/appdetails", allowed: allowed},
		{name: "Foreign host", input: "https://evil.example.com/", allowed: allowed, wantErr: true},
		{name: "Bad scheme", input: "file:///etc/passwd", allowed: allowed, wantErr: true},
		{name: "Empty allowlist", input: "http://127.0.0.1:8080/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HostAllowed(tt.input, tt.allowed)
			if (err != nil) != tt.wantErr {
				t.Errorf("HostAllowed() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
