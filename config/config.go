package config

import (
	"fmt"
	"strings"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	"github.com/spf13/viper"
)

// SnowflakeConfigT holds connection settings sourced from the environment.
type SnowflakeConfigT struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Database  string
	Schema    string
	Role      string
}

var requiredSnowflakeEnv = []string{
	"SNOWFLAKE_ACCOUNT",
	"SNOWFLAKE_USER",
	"SNOWFLAKE_PASSWORD",
	"SNOWFLAKE_WAREHOUSE",
	"SNOWFLAKE_DATABASE",
	"SNOWFLAKE_SCHEMA",
}

// Initialize loads the local .env file and environment variables into viper
// and registers defaults. A missing .env file is fine as long as the
// environment carries the settings.
func Initialize() {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		logger.Debug(fmt.Sprintf("No .env file loaded: %s", err.Error()))
	}
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("GHO_BASE_URL", "https://ghoapi.azureedge.net/api")
	viper.SetDefault("RAW_DATA_DIR", "data/raw/who")
	viper.SetDefault("ADMIN_PORT", 8090)
	viper.SetDefault("REGISTRY_ENABLED", false)
	viper.SetDefault("REGISTRY_PORT", "5432")
	viper.SetDefault("WAREHOUSE_PG_PORT", "5432")
	viper.SetDefault("WAREHOUSE_PG_SSL_MODE", "disable")
}

// GetSnowflakeConfig reads the Snowflake settings from the environment. The
// returned error names every missing required variable so a misconfigured
// run can be fixed in one go.
func GetSnowflakeConfig() (SnowflakeConfigT, error) {
	var missing []string
	for _, key := range requiredSnowflakeEnv {
		if viper.GetString(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return SnowflakeConfigT{}, fmt.Errorf("missing Snowflake env vars: %s", strings.Join(missing, ", "))
	}
	return SnowflakeConfigT{
		Account:   viper.GetString("SNOWFLAKE_ACCOUNT"),
		User:      viper.GetString("SNOWFLAKE_USER"),
		Password:  viper.GetString("SNOWFLAKE_PASSWORD"),
		Warehouse: viper.GetString("SNOWFLAKE_WAREHOUSE"),
		Database:  viper.GetString("SNOWFLAKE_DATABASE"),
		Schema:    viper.GetString("SNOWFLAKE_SCHEMA"),
		Role:      viper.GetString("SNOWFLAKE_ROLE"),
	}, nil
}

// GetRegistryConnectionString builds the DSN for the run registry database.
func GetRegistryConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s "+
		"password=%s dbname=%s sslmode=disable",
		viper.GetString("REGISTRY_HOST"),
		viper.GetString("REGISTRY_PORT"),
		viper.GetString("REGISTRY_USER"),
		viper.GetString("REGISTRY_PASSWORD"),
		viper.GetString("REGISTRY_DB"))
}

// GetWarehousePGConnectionString builds the DSN for the local Postgres
// warehouse destination.
func GetWarehousePGConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s "+
		"password=%s dbname=%s sslmode=%s",
		viper.GetString("WAREHOUSE_PG_HOST"),
		viper.GetString("WAREHOUSE_PG_PORT"),
		viper.GetString("WAREHOUSE_PG_USER"),
		viper.GetString("WAREHOUSE_PG_PASSWORD"),
		viper.GetString("WAREHOUSE_PG_DB"),
		viper.GetString("WAREHOUSE_PG_SSL_MODE"))
}
