package walker

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report_0.xlsx", "report.xlsx"},
		{"report_0.txt", "report_0.txt"},
		{"report.xlsx", "report.xlsx"},
		{"report_1.xlsx", "report_1.xlsx"},
		{"_0.xlsx", ".xlsx"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
