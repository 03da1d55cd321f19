package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbservice/internal/lookup"
)

var records = []lookup.Record{
	{Mobile: "03001234567", Name: "Ali Khan", CNIC: "3520212345671", Address: "House 1, Lahore", Source: lookup.SourceRegistry},
	{Mobile: "03211234567", Name: `Sara "S"`, CNIC: "N/A", Address: "N/A", Source: lookup.SourceRegistry},
}

func TestCSV(t *testing.T) {
	out, err := CSV(records)
	require.NoError(t, err)

	want := "Mobile,Name,CNIC,Address,Source\n" +
		"03001234567,Ali Khan,3520212345671,\"House 1, Lahore\",SIM/CNIC Database\n" +
		"03211234567,\"Sara \"\"S\"\"\",N/A,N/A,SIM/CNIC Database\n"
	assert.Equal(t, want, string(out))
}

func TestCSVEmpty(t *testing.T) {
	out, err := CSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Mobile,Name,CNIC,Address,Source\n", string(out))
}

func TestRecordText(t *testing.T) {
	assert.Equal(t,
		"Mobile: 03001234567\nName: Ali Khan\nCNIC: 3520212345671\nAddress: House 1, Lahore\nSource: SIM/CNIC Database",
		RecordText(records[0]))
}

func TestText(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	got := Text(records, at)

	assert.Equal(t, "DB Service PK Results - 2026-03-04 05:06:07\n"+
		"Total Records: 2\n\n"+
		"--- Result 1 ---\n"+RecordText(records[0])+"\n\n"+
		"--- Result 2 ---\n"+RecordText(records[1]), got)
}

func TestFilename(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "db-service-results-1700000000123.csv", Filename(FormatCSV, at))
	assert.Equal(t, "db-service-results-1700000000123.txt", Filename(FormatText, at))
	assert.True(t, ValidFormat("csv"))
	assert.False(t, ValidFormat("xlsx"))
}
