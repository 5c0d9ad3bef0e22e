package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	viper.AutomaticEnv()
	setDefaults()
}

func setSnowflakeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SNOWFLAKE_ACCOUNT", "xy12345")
	t.Setenv("SNOWFLAKE_USER", "loader")
	t.Setenv("SNOWFLAKE_PASSWORD", "secret")
	t.Setenv("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH")
	t.Setenv("SNOWFLAKE_DATABASE", "RAW")
	t.Setenv("SNOWFLAKE_SCHEMA", "WHO")
}

func TestGetSnowflakeConfig(t *testing.T) {
	resetViper(t)
	setSnowflakeEnv(t)
	t.Setenv("SNOWFLAKE_ROLE", "LOADER_ROLE")

	cfg, err := GetSnowflakeConfig()
	require.NoError(t, err)
	assert.Equal(t, "xy12345", cfg.Account)
	assert.Equal(t, "loader", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "COMPUTE_WH", cfg.Warehouse)
	assert.Equal(t, "RAW", cfg.Database)
	assert.Equal(t, "WHO", cfg.Schema)
	assert.Equal(t, "LOADER_ROLE", cfg.Role)
}

func TestGetSnowflakeConfigRoleIsOptional(t *testing.T) {
	resetViper(t)
	setSnowflakeEnv(t)
	t.Setenv("SNOWFLAKE_ROLE", "")

	cfg, err := GetSnowflakeConfig()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Role)
}

func TestGetSnowflakeConfigNamesEveryMissingVar(t *testing.T) {
	resetViper(t)
	setSnowflakeEnv(t)
	t.Setenv("SNOWFLAKE_ACCOUNT", "")
	t.Setenv("SNOWFLAKE_SCHEMA", "")

	_, err := GetSnowflakeConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNOWFLAKE_ACCOUNT")
	assert.Contains(t, err.Error(), "SNOWFLAKE_SCHEMA")
	assert.NotContains(t, err.Error(), "SNOWFLAKE_USER")
}

func TestDefaults(t *testing.T) {
	resetViper(t)
	assert.Equal(t, "https://ghoapi.azureedge.net/api", viper.GetString("GHO_BASE_URL"))
	assert.Equal(t, "data/raw/who", viper.GetString("RAW_DATA_DIR"))
	assert.Equal(t, 8090, viper.GetInt("ADMIN_PORT"))
	assert.False(t, viper.GetBool("REGISTRY_ENABLED"))
}

func TestWarehousePGConnectionString(t *testing.T) {
	resetViper(t)
	t.Setenv("WAREHOUSE_PG_HOST", "localhost")
	t.Setenv("WAREHOUSE_PG_USER", "who")
	t.Setenv("WAREHOUSE_PG_PASSWORD", "who")
	t.Setenv("WAREHOUSE_PG_DB", "warehouse")

	dsn := GetWarehousePGConnectionString()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=warehouse")
	assert.Contains(t, dsn, "sslmode=disable")
}
