package rawstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/misc"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	partFileName = "part-00000.jsonl"
	metaFileName = "_meta.json"
)

// HandleT writes one indicator's records as line-delimited JSON under
//
//	<root>/<indicator>/ingest_date=YYYY-MM-DD/part-00000.jsonl
//
// The part file is truncated on Setup, so re-running an ingestion for the
// same indicator and date overwrites the previous raw layer.
type HandleT struct {
	RootDir    string
	Indicator  string
	IngestDate string

	dir      string
	file     *os.File
	writer   *bufio.Writer
	rowCount int

	// Observed range of the records' Date field, for the meta sidecar.
	minRecordTime time.Time
	maxRecordTime time.Time
}

// MetaT is the `_meta.json` sidecar describing how the part file was
// produced.
type MetaT struct {
	Indicator string
	PageSize  int
	MaxRows   int
	Select    string
	Filter    string
}

func (handle *HandleT) Setup(rootDir, indicator, ingestDate string) error {
	err := misc.SanitizeIndicator(indicator)
	if err != nil {
		return err
	}
	handle.RootDir = rootDir
	handle.Indicator = indicator
	handle.IngestDate = ingestDate
	handle.dir = filepath.Join(rootDir, indicator, "ingest_date="+ingestDate)

	err = misc.EnsureDir(handle.dir)
	if err != nil {
		return fmt.Errorf("failed to create raw data dir %s: %w", handle.dir, err)
	}
	file, err := os.Create(handle.PartFilePath())
	if err != nil {
		return fmt.Errorf("failed to create part file: %w", err)
	}
	handle.file = file
	handle.writer = bufio.NewWriter(file)
	logger.Info(fmt.Sprintf("Raw layer opened at %s", handle.PartFilePath()))
	return nil
}

func (handle *HandleT) PartFilePath() string {
	return filepath.Join(handle.dir, partFileName)
}

func (handle *HandleT) MetaFilePath() string {
	return filepath.Join(handle.dir, metaFileName)
}

// WriteRecord appends one record as a single JSON line, byte-for-byte as
// received from the API.
func (handle *HandleT) WriteRecord(record json.RawMessage) error {
	_, err := handle.writer.Write(record)
	if err != nil {
		return err
	}
	err = handle.writer.WriteByte('\n')
	if err != nil {
		return err
	}
	handle.rowCount++
	handle.observeRecordTime(record)
	return nil
}

// Records carry a Date field in assorted timestamp layouts; dateparse
// covers them without a format table.
func (handle *HandleT) observeRecordTime(record json.RawMessage) {
	raw := gjson.GetBytes(record, "Date").String()
	if raw == "" {
		return
	}
	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		return
	}
	if handle.minRecordTime.IsZero() || ts.Before(handle.minRecordTime) {
		handle.minRecordTime = ts
	}
	if handle.maxRecordTime.IsZero() || ts.After(handle.maxRecordTime) {
		handle.maxRecordTime = ts
	}
}

func (handle *HandleT) RowCount() int {
	return handle.rowCount
}

func (handle *HandleT) Close() error {
	if handle.writer != nil {
		err := handle.writer.Flush()
		if err != nil {
			handle.file.Close()
			return err
		}
	}
	if handle.file != nil {
		return handle.file.Close()
	}
	return nil
}

// setMetaField writes one field into the meta document. sjson only fails
// on a malformed path, which would be a bug here.
func setMetaField(doc []byte, path string, value interface{}) []byte {
	doc, err := sjson.SetBytes(doc, path, value)
	misc.AssertError(err)
	return doc
}

// WriteMeta drops the `_meta.json` sidecar next to the part file. Optional
// settings are omitted from the document rather than serialized as zero
// values.
func (handle *HandleT) WriteMeta(meta MetaT) (string, error) {
	doc := []byte(`{}`)
	doc = setMetaField(doc, "indicator", handle.Indicator)
	doc = setMetaField(doc, "ingest_date", handle.IngestDate)
	doc = setMetaField(doc, "page_size", meta.PageSize)
	doc = setMetaField(doc, "row_count", handle.rowCount)
	doc = setMetaField(doc, "timestamp_utc", time.Now().UTC().Format(misc.RFC3339Milli))
	if meta.MaxRows > 0 {
		doc = setMetaField(doc, "max_rows", meta.MaxRows)
	}
	if meta.Select != "" {
		doc = setMetaField(doc, "select", meta.Select)
	}
	if meta.Filter != "" {
		doc = setMetaField(doc, "filter", meta.Filter)
	}
	if !handle.minRecordTime.IsZero() {
		doc = setMetaField(doc, "record_time_min", handle.minRecordTime.UTC().Format(misc.RFC3339Milli))
		doc = setMetaField(doc, "record_time_max", handle.maxRecordTime.UTC().Format(misc.RFC3339Milli))
	}

	path := handle.MetaFilePath()
	err := os.WriteFile(path, doc, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to write meta file: %w", err)
	}
	return path, nil
}
