package common

import "testing"

func TestContainsAny(t *testing.T) {
	tests := []struct {
		s    string
		subs []string
		want bool
	}{
		{"Biroz bulutli", []string{"bulut"}, true},
		{"OCHIQ", []string{"ochiq", "quyosh"}, true},
		{"Tuman", []string{"qor"}, false},
		{"", []string{"x"}, false},
	}
	for _, tt := range tests {
		if got := ContainsAny(tt.s, tt.subs...); got != tt.want {
			t.Errorf("ContainsAny(%q, %v) = %v, want %v", tt.s, tt.subs, got, tt.want)
		}
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault("  ", "x") != "x" {
		t.Error("blank should fall back")
	}
	if OrDefault("a", "x") != "a" {
		t.Error("non-blank should be kept")
	}
}
