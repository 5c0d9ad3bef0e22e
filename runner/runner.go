package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/ingester"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/registry"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/routers"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// ResolvePort picks the admin server port: the --port flag wins over the
// ADMIN_PORT setting.
func ResolvePort() int {
	if port := viper.GetInt("port"); port != 0 {
		return port
	}
	return viper.GetInt("ADMIN_PORT")
}

// CreateServer runs the admin HTTP server until SIGINT/SIGTERM, then
// shuts down gracefully.
func CreateServer(ing *ingester.HandleT, reg *registry.HandleT) error {
	port := ResolvePort()
	routersInit := routers.InitRouter(ing, reg)

	server := &http.Server{
		Addr:           ":" + strconv.Itoa(port),
		Handler:        routersInit,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   600 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(fmt.Sprintf("Admin server listening on :%d", port))
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
