package destinations

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []RecordRowT {
	rows := make([]RecordRowT, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, RecordRowT{ID: fmt.Sprintf("%d", i)})
	}
	return rows
}

func TestMakeBatches(t *testing.T) {
	batches := MakeBatches(makeRows(10), 4)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 4)
	assert.Len(t, batches[2], 2)

	// order preserved across batches
	assert.Equal(t, "0", batches[0][0].ID)
	assert.Equal(t, "4", batches[1][0].ID)
	assert.Equal(t, "9", batches[2][1].ID)
}

func TestMakeBatchesExactMultiple(t *testing.T) {
	batches := MakeBatches(makeRows(8), 4)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 4)
}

func TestMakeBatchesEmpty(t *testing.T) {
	assert.Empty(t, MakeBatches(nil, 100))
}

func TestMakeBatchesRejectsNonPositiveSize(t *testing.T) {
	assert.Panics(t, func() { MakeBatches(makeRows(3), 0) })
	assert.Panics(t, func() { MakeBatches(makeRows(3), -1) })
}

func TestTableNameForIndicator(t *testing.T) {
	assert.Equal(t, "who_mdg_0000000007", TableNameForIndicator("MDG_0000000007"))
	assert.Equal(t, "who_whosis_000001", TableNameForIndicator("WHOSIS_000001"))
}

func TestRowFromRecord(t *testing.T) {
	record := json.RawMessage(`{"Id":"abc-123","SpatialDim":"AFG"}`)
	row := RowFromRecord("MDG_0000000007", "2026-08-29", record)
	assert.Equal(t, "MDG_0000000007", row.Indicator)
	assert.Equal(t, "2026-08-29", row.IngestDate)
	assert.Equal(t, "abc-123", row.ID)
	assert.Equal(t, record, row.Payload)
}

func TestRowFromRecordNumericID(t *testing.T) {
	row := RowFromRecord("X", "2026-08-29", json.RawMessage(`{"Id":42}`))
	assert.Equal(t, "42", row.ID)
}

func TestRowFromRecordMissingID(t *testing.T) {
	row := RowFromRecord("X", "2026-08-29", json.RawMessage(`{"SpatialDim":"AFG"}`))
	assert.Equal(t, "", row.ID)
}
