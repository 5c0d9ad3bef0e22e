package snowflake

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/config"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/destinations"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	sf "github.com/snowflakedb/gosnowflake"
)

type HandleT struct {
	DBHandle *sql.DB
	Config   config.SnowflakeConfigT
}

func (handle *HandleT) Connect() error {
	sfConfig, err := config.GetSnowflakeConfig()
	if err != nil {
		return err
	}
	handle.Config = sfConfig

	dsn, err := sf.DSN(&sf.Config{
		Account:   sfConfig.Account,
		User:      sfConfig.User,
		Password:  sfConfig.Password,
		Warehouse: sfConfig.Warehouse,
		Database:  sfConfig.Database,
		Schema:    sfConfig.Schema,
		Role:      sfConfig.Role,
	})
	if err != nil {
		return fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	dbHandle, err := sql.Open("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("failed to open Snowflake connection: %w", err)
	}
	err = dbHandle.Ping()
	if err != nil {
		dbHandle.Close()
		return fmt.Errorf("failed to ping Snowflake: %w", err)
	}
	dbHandle.SetMaxIdleConns(5)
	dbHandle.SetMaxOpenConns(20)
	handle.DBHandle = dbHandle
	logger.Info(fmt.Sprintf("Snowflake destination connected: account=%s database=%s schema=%s", sfConfig.Account, sfConfig.Database, sfConfig.Schema))
	return nil
}

func (handle *HandleT) EnsureTable(tableName string) error {
	sqlStatement := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		indicator STRING,
		ingest_date DATE,
		id STRING,
		data VARIANT
	)`, tableName)
	_, err := handle.DBHandle.Exec(sqlStatement)
	return err
}

// InsertRecordBatch loads one batch with a single multi-row statement
// inside a transaction. parse_json lifts the verbatim record into the
// VARIANT column, which is why this is an INSERT..SELECT rather than
// INSERT..VALUES.
func (handle *HandleT) InsertRecordBatch(tableName string, rows []destinations.RecordRowT) error {
	if len(rows) == 0 {
		return nil
	}

	var stmt strings.Builder
	args := make([]interface{}, 0, len(rows)*4)
	fmt.Fprintf(&stmt, "INSERT INTO %s (indicator, ingest_date, id, data)", tableName)
	for i, row := range rows {
		if i == 0 {
			stmt.WriteString(" SELECT ?, ?, ?, parse_json(?)")
		} else {
			stmt.WriteString(" UNION ALL SELECT ?, ?, ?, parse_json(?)")
		}
		args = append(args, row.Indicator, row.IngestDate, row.ID, string(row.Payload))
	}

	tx, err := handle.DBHandle.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(stmt.String(), args...)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("snowflake batch insert failed: %w", err)
	}
	return tx.Commit()
}

func (handle *HandleT) Close() error {
	if handle.DBHandle == nil {
		return nil
	}
	return handle.DBHandle.Close()
}
