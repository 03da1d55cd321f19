// Package export renders lookup records in the download and clipboard
// formats offered by the UI and CLI.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"dbservice/internal/lookup"
)

// Formats accepted by Render.
const (
	FormatCSV  = "csv"
	FormatText = "text"
)

const (
	textTitle      = "DB Service PK Results"
	timeLayout     = "2006-01-02 15:04:05"
	filenamePrefix = "db-service-results-"
)

var csvHeader = []string{"Mobile", "Name", "CNIC", "Address", "Source"}

// CSV renders records with a Mobile,Name,CNIC,Address,Source header.
func CSV(records []lookup.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write([]string{r.Mobile, r.Name, r.CNIC, r.Address, r.Source}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RecordText renders one record in the single-copy clipboard format.
func RecordText(r lookup.Record) string {
	return fmt.Sprintf("Mobile: %s\nName: %s\nCNIC: %s\nAddress: %s\nSource: %s",
		r.Mobile, r.Name, r.CNIC, r.Address, r.Source)
}

// Text renders every record in the bulk clipboard format, stamped with at.
func Text(records []lookup.Record, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", textTitle, at.Format(timeLayout))
	fmt.Fprintf(&b, "Total Records: %d\n\n", len(records))
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Result %d ---\n", i+1)
		b.WriteString(RecordText(r))
	}
	return b.String()
}

// Filename returns the attachment name for an export generated at at.
func Filename(format string, at time.Time) string {
	ext := "csv"
	if format == FormatText {
		ext = "txt"
	}
	return fmt.Sprintf("%s%d.%s", filenamePrefix, at.UnixMilli(), ext)
}

// ValidFormat reports whether format is csv or text.
func ValidFormat(format string) bool {
	return format == FormatCSV || format == FormatText
}
