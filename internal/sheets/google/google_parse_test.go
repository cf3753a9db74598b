package google

import "testing"

func TestFindSummaryRow(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Business", "Customers"},
		{"2025-05-01", "Blue Drop", 3},
		{"2025-05-02", "Blue Drop", 4},
		{"2025-05-02", "Other Water"},
		{},
	}
	tests := []struct {
		day, business string
		want          int
	}{
		{"2025-05-02", "Blue Drop", 3},
		{"2025-05-02", "  blue drop ", 3},
		{"2025-05-02", "Other Water", 4},
		{"2025-05-03", "Blue Drop", 0},
		{"Date", "Business", 1},
	}
	for _, tt := range tests {
		if got := findSummaryRow(values, tt.day, tt.business); got != tt.want {
			t.Errorf("findSummaryRow(%q, %q) = %d, want %d", tt.day, tt.business, got, tt.want)
		}
	}
}
