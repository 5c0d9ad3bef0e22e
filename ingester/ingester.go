package ingester

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/destinations"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/rawstore"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/registry"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/services"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/sources/who"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBatchSize = 1000

// RunConfigT is everything one ingestion run needs. DestinationKind selects
// the warehouse ("snowflake" or "postgres"); empty means local JSONL only.
type RunConfigT struct {
	BaseURL    string
	Indicator  string
	PageSize   int
	MaxRows    int
	Select     string
	Filter     string
	Sleep      time.Duration
	Timeout    time.Duration
	RawDataDir string

	DestinationKind string
	TableName       string
	BatchSize       int
}

type RunResultT struct {
	RunID          string `json:"run_id"`
	Indicator      string `json:"indicator"`
	IngestDate     string `json:"ingest_date"`
	PartFile       string `json:"part_file"`
	MetaFile       string `json:"meta_file"`
	TableName      string `json:"table_name,omitempty"`
	RowsFetched    int    `json:"rows_fetched"`
	RowsWritten    int    `json:"rows_written"`
	RowsLoaded     int    `json:"rows_loaded"`
	BatchesFlushed int    `json:"batches_flushed"`
}

// WarehouseFactoryT builds an unconnected warehouse handle for a
// destination kind.
type WarehouseFactoryT func(kind string) (destinations.WarehouseT, error)

type HandleT struct {
	Registry         *registry.HandleT
	WarehouseFactory WarehouseFactoryT
	stats            *stats.RunStatsT
}

func (handle *HandleT) Setup(reg *registry.HandleT, factory WarehouseFactoryT) {
	handle.Registry = reg
	handle.WarehouseFactory = factory
	handle.stats = stats.NewStat("ingester")
}

// Run executes one linear ingestion: fetch every record for the indicator,
// land them as JSONL, then batch-load into the warehouse when one is
// configured. Phases are strictly sequential, so a warehouse failure never
// touches the already-written local file.
func (handle *HandleT) Run(runConfig RunConfigT) (RunResultT, error) {
	if handle.stats == nil {
		handle.stats = stats.NewStat("ingester")
	}
	if runConfig.BatchSize == 0 {
		runConfig.BatchSize = defaultBatchSize
	}
	if runConfig.BatchSize < 0 {
		return RunResultT{}, fmt.Errorf("batch size must be a positive integer, got %d", runConfig.BatchSize)
	}
	if runConfig.DestinationKind != "" && runConfig.TableName == "" {
		runConfig.TableName = destinations.TableNameForIndicator(runConfig.Indicator)
	}

	result := RunResultT{
		RunID:      uuid.New().String(),
		Indicator:  runConfig.Indicator,
		IngestDate: time.Now().UTC().Format("2006-01-02"),
		TableName:  runConfig.TableName,
	}

	runRecord := &registry.IngestionRunT{
		RunID:       result.RunID,
		Indicator:   runConfig.Indicator,
		IngestDate:  result.IngestDate,
		Destination: runConfig.DestinationKind,
	}
	handle.Registry.RecordStart(runRecord)

	err := handle.run(runConfig, &result)

	runRecord.RowsFetched = result.RowsFetched
	runRecord.RowsWritten = result.RowsWritten
	runRecord.RowsLoaded = result.RowsLoaded
	handle.Registry.RecordFinish(runRecord, err)
	if err != nil {
		handle.stats.Count("runs.failed", 1)
	} else {
		handle.stats.Gauge("run.rows", float32(result.RowsWritten))
	}
	return result, err
}

func (handle *HandleT) run(runConfig RunConfigT, result *RunResultT) error {
	source := &who.HandleT{}
	err := source.Setup(who.SourceConfigT{
		BaseURL:           runConfig.BaseURL,
		Indicator:         runConfig.Indicator,
		PageSize:          runConfig.PageSize,
		MaxRows:           runConfig.MaxRows,
		Select:            runConfig.Select,
		Filter:            runConfig.Filter,
		SleepBetweenPages: runConfig.Sleep,
		Timeout:           runConfig.Timeout,
	})
	if err != nil {
		return err
	}

	var records []json.RawMessage
	fetched, err := source.ExtractAll(func(record json.RawMessage) error {
		records = append(records, record)
		return nil
	})
	result.RowsFetched = fetched
	handle.stats.Count("records.fetched", fetched)
	if err != nil {
		return err
	}
	logger.Info("Fetch complete", zap.String("indicator", runConfig.Indicator), zap.Int("rows", fetched))

	store := &rawstore.HandleT{}
	err = store.Setup(runConfig.RawDataDir, runConfig.Indicator, result.IngestDate)
	if err != nil {
		return err
	}
	for _, record := range records {
		err = store.WriteRecord(record)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed writing raw record: %w", err)
		}
	}
	err = store.Close()
	if err != nil {
		return fmt.Errorf("failed closing part file: %w", err)
	}
	result.RowsWritten = store.RowCount()
	result.PartFile = store.PartFilePath()
	handle.stats.Count("records.written", result.RowsWritten)

	metaFile, err := store.WriteMeta(rawstore.MetaT{
		Indicator: runConfig.Indicator,
		PageSize:  runConfig.PageSize,
		MaxRows:   runConfig.MaxRows,
		Select:    runConfig.Select,
		Filter:    runConfig.Filter,
	})
	if err != nil {
		return err
	}
	result.MetaFile = metaFile
	logger.Info("Raw layer written", zap.String("part_file", result.PartFile), zap.Int("rows", result.RowsWritten))

	if runConfig.DestinationKind == "" {
		return nil
	}
	return handle.load(runConfig, records, result)
}

func (handle *HandleT) load(runConfig RunConfigT, records []json.RawMessage, result *RunResultT) error {
	if handle.WarehouseFactory == nil {
		return fmt.Errorf("no warehouse factory configured for destination %q", runConfig.DestinationKind)
	}
	warehouse, err := handle.WarehouseFactory(runConfig.DestinationKind)
	if err != nil {
		return err
	}
	err = warehouse.Connect()
	if err != nil {
		return err
	}
	defer warehouse.Close()

	err = warehouse.EnsureTable(runConfig.TableName)
	if err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", runConfig.TableName, err)
	}

	rows := make([]destinations.RecordRowT, 0, len(records))
	for _, record := range records {
		rows = append(rows, destinations.RowFromRecord(runConfig.Indicator, result.IngestDate, record))
	}

	for _, batch := range destinations.MakeBatches(rows, runConfig.BatchSize) {
		err = warehouse.InsertRecordBatch(runConfig.TableName, batch)
		if err != nil {
			return err
		}
		result.RowsLoaded += len(batch)
		result.BatchesFlushed++
		handle.stats.Count("records.loaded", len(batch))
		handle.stats.Count("batches.flushed", 1)
	}
	logger.Info("Warehouse load complete",
		zap.String("table", runConfig.TableName),
		zap.Int("rows", result.RowsLoaded),
		zap.Int("batches", result.BatchesFlushed))
	return nil
}
