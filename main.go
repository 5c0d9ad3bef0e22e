package main

import (
	"fmt"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/config"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/destinations"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/destinations/postgres"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/destinations/snowflake"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/ingester"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/registry"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/runner"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/services"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	pflag.String("indicator", "", "Indicator code / endpoint (e.g. MDG_0000000007)")
	pflag.Int("page-size", 1000, "Rows per page ($top)")
	pflag.Int("top", 0, "Max total rows to fetch, 0 for all (for testing)")
	pflag.String("select", "", "OData $select, comma-separated (e.g. Id,SpatialDim,TimeDim,NumericValue)")
	pflag.String("filter", "", "OData $filter string (e.g. SpatialDimType eq 'COUNTRY')")
	pflag.Float64("sleep", 0, "Seconds to sleep between pages (polite)")
	pflag.Int("timeout", 30, "HTTP timeout in seconds")
	pflag.Bool("snowflake", false, "Also load rows into Snowflake")
	pflag.String("snowflake-table", "", "Snowflake table name (default: who_<indicator>)")
	pflag.Int("snowflake-batch-size", 1000, "Warehouse insert batch size")
	pflag.Bool("postgres", false, "Load into the local Postgres warehouse instead of Snowflake")
	pflag.Bool("serve", false, "Run the admin HTTP server instead of a one-shot ingestion")
	pflag.Int("port", 0, "Admin server port (overrides ADMIN_PORT)")
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)

	config.Initialize()
	stats.Init()
	defer logger.Sync()

	registryDB := &registry.HandleT{}
	registryDB.Setup()

	ing := &ingester.HandleT{}
	ing.Setup(registryDB, newWarehouse)

	if viper.GetBool("serve") {
		err := runner.CreateServer(ing, registryDB)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Admin server failed: %s", err.Error()))
		}
		return
	}

	indicator := viper.GetString("indicator")
	if indicator == "" {
		logger.Fatal("--indicator is required")
	}
	batchSize := viper.GetInt("snowflake-batch-size")
	if batchSize <= 0 {
		logger.Fatal("--snowflake-batch-size must be > 0")
	}

	destinationKind := ""
	if viper.GetBool("snowflake") {
		destinationKind = "snowflake"
	} else if viper.GetBool("postgres") {
		destinationKind = "postgres"
	}

	runConfig := ingester.RunConfigT{
		BaseURL:         viper.GetString("GHO_BASE_URL"),
		Indicator:       indicator,
		PageSize:        viper.GetInt("page-size"),
		MaxRows:         viper.GetInt("top"),
		Select:          viper.GetString("select"),
		Filter:          viper.GetString("filter"),
		Sleep:           time.Duration(viper.GetFloat64("sleep") * float64(time.Second)),
		Timeout:         time.Duration(viper.GetInt("timeout")) * time.Second,
		RawDataDir:      viper.GetString("RAW_DATA_DIR"),
		DestinationKind: destinationKind,
		TableName:       viper.GetString("snowflake-table"),
		BatchSize:       batchSize,
	}

	result, err := ing.Run(runConfig)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.String("indicator", indicator), zap.Error(err))
	}
	logger.Info("Ingestion complete",
		zap.String("run_id", result.RunID),
		zap.Int("rows_written", result.RowsWritten),
		zap.String("part_file", result.PartFile),
		zap.String("meta_file", result.MetaFile))
	if destinationKind != "" {
		logger.Info("Warehouse load complete",
			zap.String("table", result.TableName),
			zap.Int("rows_loaded", result.RowsLoaded))
	}
}

func newWarehouse(kind string) (destinations.WarehouseT, error) {
	switch kind {
	case "snowflake":
		return &snowflake.HandleT{}, nil
	case "postgres":
		return &postgres.HandleT{}, nil
	}
	return nil, fmt.Errorf("unknown warehouse destination %q", kind)
}
