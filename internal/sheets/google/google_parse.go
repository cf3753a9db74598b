package google

import (
	"fmt"
	"strings"
)

// findSummaryRow returns the 1-based row whose first two cells match day and
// business, or 0. values is column A:B as returned by the Sheets API.
func findSummaryRow(values [][]interface{}, day, business string) int {
	for i, raw := range values {
		row := toStrings(raw)
		if len(row) < 2 {
			continue
		}
		if row[0] == day && strings.EqualFold(row[1], strings.TrimSpace(business)) {
			return i + 1
		}
	}
	return 0
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
