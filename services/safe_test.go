package services

import "testing"

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"nil", nil, 0.0},
		{"float64", 123.45, 123.45},
		{"int", 42, 42.0},
		{"int64", int64(7), 7.0},
		{"plain string", "99.5", 99.5},
		{"indian comma grouping", "1,23,456.70", 123456.70},
		{"thousands commas", "2,500.00", 2500.0},
		{"dash placeholder", "-", 0.0},
		{"na placeholder", "NA", 0.0},
		{"nan placeholder", "nan", 0.0},
		{"empty string", "", 0.0},
		{"whitespace", "  ", 0.0},
		{"padded number", " 10.5 ", 10.5},
		{"negative string", "-3.25", -3.25},
		{"garbage", "n/a%", 0.0},
		{"bool", true, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFloat(tt.input); got != tt.want {
				t.Errorf("SafeFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeInt64(t *testing.T) {
	if got := SafeInt64("2,50,000"); got != 250000 {
		t.Errorf("SafeInt64 = %d, want 250000", got)
	}
	if got := SafeInt64(99.9); got != 99 {
		t.Errorf("SafeInt64 should truncate, got %d", got)
	}
	if got := SafeInt64("NA"); got != 0 {
		t.Errorf("SafeInt64(NA) = %d, want 0", got)
	}
}
