package lookup

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Normalize converts a registry payload into a Result. Sentinel rows are
// dropped and flagged; the remaining rows get display defaults.
func Normalize(query Query, body []byte) *Result {
	res := &Result{Query: query.String(), Results: []Record{}}

	rows := gjson.GetBytes(body, "results")
	if !rows.IsArray() && gjson.ParseBytes(body).IsArray() {
		rows = gjson.ParseBytes(body)
	}

	rows.ForEach(func(_, row gjson.Result) bool {
		mobile := row.Get("mobile").String()
		if strings.Contains(mobile, SentinelMarker) {
			res.RegisteredAfter2022 = true
			return true
		}
		res.Results = append(res.Results, Record{
			Mobile:  FormatPhoneNumber(mobile),
			Name:    orNA(row.Get("name").String()),
			CNIC:    orNA(row.Get("cnic").String()),
			Address: orNA(row.Get("address").String()),
			Source:  SourceRegistry,
		})
		return true
	})

	res.ResultsCount = len(res.Results)
	return res
}

// FormatPhoneNumber renders a registry mobile value for display.
//
// Empty values become N/A. A bare 10-digit number gets its trunk 0 back;
// anything with 10 or more digits is shown as digits only; shorter values are
// returned unchanged.
func FormatPhoneNumber(value string) string {
	if strings.TrimSpace(value) == "" {
		return NotAvailable
	}
	clean := Digits(value)
	switch {
	case len(clean) == 10 && !strings.HasPrefix(clean, "0"):
		return "0" + clean
	case len(clean) >= 10:
		return clean
	default:
		return value
	}
}

func orNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	return s
}
