package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/config"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/destinations"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	_ "github.com/lib/pq"
)

// HandleT is the local-development warehouse: same contract as Snowflake,
// backed by a plain Postgres with a JSONB data column.
type HandleT struct {
	DBHandle *sql.DB
}

func (handle *HandleT) Connect() error {
	connectionString := config.GetWarehousePGConnectionString()

	dbHandle, err := sql.Open("postgres", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open warehouse DB connection: %w", err)
	}
	err = dbHandle.Ping()
	if err != nil {
		dbHandle.Close()
		return fmt.Errorf("failed to ping warehouse DB: %w", err)
	}
	dbHandle.SetMaxIdleConns(5)
	dbHandle.SetMaxOpenConns(20)
	handle.DBHandle = dbHandle
	logger.Info("Postgres warehouse destination connected")
	return nil
}

func (handle *HandleT) EnsureTable(tableName string) error {
	sqlStatement := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		indicator TEXT,
		ingest_date DATE,
		id TEXT,
		data JSONB
	)`, tableName)
	_, err := handle.DBHandle.Exec(sqlStatement)
	return err
}

func (handle *HandleT) InsertRecordBatch(tableName string, rows []destinations.RecordRowT) error {
	if len(rows) == 0 {
		return nil
	}

	var stmt strings.Builder
	args := make([]interface{}, 0, len(rows)*4)
	fmt.Fprintf(&stmt, "INSERT INTO %s (indicator, ingest_date, id, data) VALUES ", tableName)
	for i, row := range rows {
		if i > 0 {
			stmt.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&stmt, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, row.Indicator, row.IngestDate, row.ID, string(row.Payload))
	}

	tx, err := handle.DBHandle.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(stmt.String(), args...)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("postgres batch insert failed: %w", err)
	}
	return tx.Commit()
}

func (handle *HandleT) Close() error {
	if handle.DBHandle == nil {
		return nil
	}
	return handle.DBHandle.Close()
}
