package callerid

// Result sources.
const (
	SourcePrimary = "primary-api"
	SourceBackup  = "backup-api"
)

const (
	unknownSim      = "N/A"
	noDataMessage   = "No caller information found for this number"
	fallbackMessage = "Unable to fetch caller information. Please try again later."
)

// Result is the merged caller-ID answer returned to clients.
type Result struct {
	Success bool   `json:"success"`
	Name    string `json:"name,omitempty"`
	Sim     string `json:"sim,omitempty"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`
	Number  string `json:"number,omitempty"`
}

// Answer is what a single provider reported.
type Answer struct {
	Name string
	Sim  string
}
