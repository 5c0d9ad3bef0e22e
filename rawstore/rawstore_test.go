package rawstore

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeAll(t *testing.T, handle *HandleT, records []string) {
	t.Helper()
	for _, record := range records {
		require.NoError(t, handle.WriteRecord(json.RawMessage(record)))
	}
	require.NoError(t, handle.Close())
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	trimmed := strings.TrimSuffix(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestWriteRecordsOnePerLine(t *testing.T) {
	handle := &HandleT{}
	require.NoError(t, handle.Setup(t.TempDir(), "MDG_0000000007", "2026-08-29"))

	records := []string{
		`{"Id":1,"SpatialDim":"AFG","NumericValue":12.5}`,
		`{"Id":2,"SpatialDim":"ALB","NumericValue":7.1}`,
		`{"Id":3,"SpatialDim":"DZA"}`,
	}
	writeAll(t, handle, records)

	assert.Equal(t, 3, handle.RowCount())
	assert.True(t, strings.HasSuffix(handle.PartFilePath(),
		"MDG_0000000007/ingest_date=2026-08-29/part-00000.jsonl"))

	lines := readLines(t, handle.PartFilePath())
	require.Len(t, lines, 3)
	// records land byte-for-byte as received
	assert.Equal(t, records, lines)
}

func TestSetupTruncatesOnRerun(t *testing.T) {
	rootDir := t.TempDir()

	first := &HandleT{}
	require.NoError(t, first.Setup(rootDir, "WHOSIS_000001", "2026-08-29"))
	writeAll(t, first, []string{`{"Id":1}`, `{"Id":2}`})

	second := &HandleT{}
	require.NoError(t, second.Setup(rootDir, "WHOSIS_000001", "2026-08-29"))
	writeAll(t, second, []string{`{"Id":9}`})

	lines := readLines(t, second.PartFilePath())
	require.Len(t, lines, 1)
	assert.Equal(t, `{"Id":9}`, lines[0])
}

func TestWriteMeta(t *testing.T) {
	handle := &HandleT{}
	require.NoError(t, handle.Setup(t.TempDir(), "MDG_0000000007", "2026-08-29"))
	writeAll(t, handle, []string{
		`{"Id":1,"Date":"2021-12-15T17:00:00+00:00"}`,
		`{"Id":2,"Date":"2019-03-01T00:00:00+00:00"}`,
		`{"Id":3}`,
	})

	metaPath, err := handle.WriteMeta(MetaT{
		Indicator: "MDG_0000000007",
		PageSize:  1000,
		Filter:    "SpatialDimType eq 'COUNTRY'",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	doc := string(data)

	assert.Equal(t, "MDG_0000000007", gjson.Get(doc, "indicator").String())
	assert.Equal(t, "2026-08-29", gjson.Get(doc, "ingest_date").String())
	assert.Equal(t, int64(1000), gjson.Get(doc, "page_size").Int())
	assert.Equal(t, int64(3), gjson.Get(doc, "row_count").Int())
	assert.Equal(t, "SpatialDimType eq 'COUNTRY'", gjson.Get(doc, "filter").String())
	assert.True(t, gjson.Get(doc, "timestamp_utc").Exists())

	// unset optionals stay out of the document
	assert.False(t, gjson.Get(doc, "max_rows").Exists())
	assert.False(t, gjson.Get(doc, "select").Exists())

	// time range comes from the records' Date field
	assert.True(t, strings.HasPrefix(gjson.Get(doc, "record_time_min").String(), "2019-03-01"))
	assert.True(t, strings.HasPrefix(gjson.Get(doc, "record_time_max").String(), "2021-12-15"))
}

func TestSetupRejectsBadIndicator(t *testing.T) {
	handle := &HandleT{}
	assert.Error(t, handle.Setup(t.TempDir(), "../../escape", "2026-08-29"))
}
