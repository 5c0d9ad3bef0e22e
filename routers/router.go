package routers

import (
	"net/http"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/ingester"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/registry"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// IngestRequestT is the POST /v1/ingest body. Defaults mirror the CLI.
type IngestRequestT struct {
	Indicator string `json:"indicator" binding:"required"`
	PageSize  int    `json:"page_size"`
	MaxRows   int    `json:"max_rows"`
	Select    string `json:"select"`
	Filter    string `json:"filter"`
	Snowflake bool   `json:"snowflake"`
	Postgres  bool   `json:"postgres"`
	Table     string `json:"table"`
	BatchSize int    `json:"batch_size"`
}

func InitRouter(ing *ingester.HandleT, reg *registry.HandleT) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())

	r.GET("/health", health)

	v1 := r.Group("/v1")
	v1.GET("/runs", listRuns(reg))
	v1.POST("/ingest", triggerIngest(ing))

	return r
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func listRuns(reg *registry.HandleT) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := reg.RecentRuns(100)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

// triggerIngest runs the pipeline synchronously; a trigger returns once
// the run finished or failed.
func triggerIngest(ing *ingester.HandleT) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IngestRequestT
		err := c.ShouldBindJSON(&req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.BatchSize < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "batch_size must be a positive integer"})
			return
		}

		destinationKind := ""
		if req.Snowflake {
			destinationKind = "snowflake"
		} else if req.Postgres {
			destinationKind = "postgres"
		}

		runConfig := ingester.RunConfigT{
			BaseURL:         viper.GetString("GHO_BASE_URL"),
			Indicator:       req.Indicator,
			PageSize:        req.PageSize,
			MaxRows:         req.MaxRows,
			Select:          req.Select,
			Filter:          req.Filter,
			Timeout:         30 * time.Second,
			RawDataDir:      viper.GetString("RAW_DATA_DIR"),
			DestinationKind: destinationKind,
			TableName:       req.Table,
			BatchSize:       req.BatchSize,
		}

		result, err := ing.Run(runConfig)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
