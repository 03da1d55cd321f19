package lookup

// SourceRegistry labels every record produced from the registry upstream.
const SourceRegistry = "SIM/CNIC Database"

// NotAvailable replaces any empty field in a normalized record.
const NotAvailable = "N/A"

// SentinelMarker is the text the registry puts in the mobile field when the
// number or CNIC was registered after 2022 and no data exists.
const SentinelMarker = "This Number/Cnic Registered After 2022"

// Record is one normalized registry row.
type Record struct {
	Mobile  string `json:"mobile"`
	Name    string `json:"name"`
	CNIC    string `json:"cnic"`
	Address string `json:"address"`
	Source  string `json:"source"`
}

// Result is the normalized answer for one query.
type Result struct {
	Query               string   `json:"query"`
	ResultsCount        int      `json:"results_count"`
	Results             []Record `json:"results"`
	RegisteredAfter2022 bool     `json:"registered_after_2022"`
}

// IsEmpty reports whether the registry had no usable rows.
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Results) == 0
}
