package destinations

import (
	"encoding/json"
	"strings"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/misc"
	"github.com/tidwall/gjson"
)

// WarehouseT is implemented by every warehouse destination. Connect reads
// its own credentials from the environment so that the local raw layer is
// already on disk before a misconfigured warehouse can fail the run.
//
// InsertRecordBatch issues exactly one statement per call and gives no
// idempotence guarantee: re-running an ingestion appends duplicate rows.
type WarehouseT interface {
	Connect() error
	EnsureTable(tableName string) error
	InsertRecordBatch(tableName string, rows []RecordRowT) error
	Close() error
}

// RecordRowT is one warehouse row: run metadata columns plus the verbatim
// record payload.
type RecordRowT struct {
	Indicator  string
	IngestDate string
	ID         string
	Payload    json.RawMessage
}

// TableNameForIndicator is the default target table, who_<indicator>.
func TableNameForIndicator(indicator string) string {
	return "who_" + strings.ToLower(indicator)
}

// RowFromRecord lifts a raw record into a warehouse row. The record's Id
// field becomes the id column when present; records without one load with
// an empty id.
func RowFromRecord(indicator, ingestDate string, record json.RawMessage) RecordRowT {
	return RecordRowT{
		Indicator:  indicator,
		IngestDate: ingestDate,
		ID:         gjson.GetBytes(record, "Id").String(),
		Payload:    record,
	}
}

// MakeBatches partitions rows into insert batches of at most batchSize,
// preserving order. Callers validate batch size before reaching this
// point, so a non-positive value here is a programming error.
func MakeBatches(rows []RecordRowT, batchSize int) [][]RecordRowT {
	misc.Assert(batchSize > 0)
	var batches [][]RecordRowT
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}
