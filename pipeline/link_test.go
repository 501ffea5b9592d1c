package pipeline

import (
	"strings"
	"testing"
)

func TestGrowwLink(t *testing.T) {
	tests := []struct {
		name        string
		ticker      string
		companyName string
		want        string
	}{
		{
			name:        "limited shortened to ltd",
			ticker:      "HCLTECH",
			companyName: "HCL Technologies Limited",
			want:        "https://groww.in/stocks/hcl-technologies-ltd?t=HCLTECH",
		},
		{
			name:        "punctuation stripped and hyphens collapsed",
			ticker:      "PGHH",
			companyName: "Procter & Gamble Hygiene Limited",
			want:        "https://groww.in/stocks/procter-gamble-hygiene-ltd?t=PGHH",
		},
		{
			name:        "empty name falls back to search",
			ticker:      "HCLTECH",
			companyName: "",
			want:        "https://groww.in/search?q=HCLTECH",
		},
		{
			name:        "NA name falls back to search",
			ticker:      "SBIN",
			companyName: "NA",
			want:        "https://groww.in/search?q=SBIN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GrowwLink(tt.ticker, tt.companyName); got != tt.want {
				t.Errorf("GrowwLink(%q, %q) = %q, want %q", tt.ticker, tt.companyName, got, tt.want)
			}
		})
	}
}

func TestGrowwLink_SlugAndTickerSuffix(t *testing.T) {
	link := GrowwLink("HCLTECH", "HCL Technologies Limited")
	if !strings.Contains(link, "hcl-technologies-ltd") {
		t.Errorf("link %q missing company slug", link)
	}
	if !strings.HasSuffix(link, "?t=HCLTECH") {
		t.Errorf("link %q missing ticker suffix", link)
	}
}
