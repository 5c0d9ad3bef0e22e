package registry

import (
	"fmt"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/config"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	RunningState   = "running"
	SucceededState = "succeeded"
	FailedState    = "failed"
)

// IngestionRunT is one row in the ingestion_runs table, one per pipeline
// run.
type IngestionRunT struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"size:64;index"`
	Indicator   string `gorm:"size:128;index"`
	IngestDate  string `gorm:"size:10"`
	Destination string `gorm:"size:32"`
	RowsFetched int
	RowsWritten int
	RowsLoaded  int
	State       string `gorm:"size:16"`
	Error       string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

func (IngestionRunT) TableName() string {
	return "ingestion_runs"
}

// HandleT keeps run history in a local Postgres. The registry is best
// effort: when disabled or unreachable, runs proceed and history is
// simply not kept.
type HandleT struct {
	dbHandle *gorm.DB
	enabled  bool
}

func (handle *HandleT) Setup() {
	if !viper.GetBool("REGISTRY_ENABLED") {
		logger.Debug("Run registry disabled")
		return
	}
	dsn := config.GetRegistryConnectionString()
	dbHandle, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Warn(fmt.Sprintf("Run registry unavailable, continuing without history: %s", err.Error()))
		return
	}
	err = dbHandle.AutoMigrate(&IngestionRunT{})
	if err != nil {
		logger.Warn(fmt.Sprintf("Run registry migration failed, continuing without history: %s", err.Error()))
		return
	}
	handle.dbHandle = dbHandle
	handle.enabled = true
	logger.Info("Run registry connected")
}

func (handle *HandleT) Enabled() bool {
	return handle != nil && handle.enabled
}

func (handle *HandleT) RecordStart(run *IngestionRunT) {
	if !handle.Enabled() {
		return
	}
	run.State = RunningState
	run.StartedAt = time.Now().UTC()
	err := handle.dbHandle.Create(run).Error
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to record run start: %s", err.Error()))
	}
}

func (handle *HandleT) RecordFinish(run *IngestionRunT, runErr error) {
	if !handle.Enabled() {
		return
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	if runErr != nil {
		run.State = FailedState
		run.Error = runErr.Error()
	} else {
		run.State = SucceededState
	}
	err := handle.dbHandle.Save(run).Error
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to record run finish: %s", err.Error()))
	}
}

// RecentRuns returns up to limit runs, newest first.
func (handle *HandleT) RecentRuns(limit int) ([]IngestionRunT, error) {
	if !handle.Enabled() {
		return nil, fmt.Errorf("run registry is not enabled")
	}
	var runs []IngestionRunT
	err := handle.dbHandle.Order("started_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
