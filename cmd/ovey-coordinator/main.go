// Command ovey-coordinator serves the overlay networks' REST API: device,
// port, GID, and queue-pair leasing for every daemon attached to any
// network the coordinator holds state for. Grounded on original_source/ovey_coordinator/src/main.rs's
// rocket-based server bootstrap, rewritten in the teacher's
// construct-in-main style using net/http directly rather than a web
// framework (gorilla/mux, the only router library in the retrieved pack,
// supplies the routing instead).
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/ovey-io/ovey/coordinator"
	"github.com/ovey-io/ovey/coordinator/rest"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	listenAddr = flag.String("listen", ":8080", "Address the coordinator's REST API listens on.")
	configPath = flag.String("config", os.Getenv("OVEY_COORDINATOR_CFG"), "Path to the coordinator's device allow-list config file. Defaults to $OVEY_COORDINATOR_CFG. Optional: absent means unrestricted.")
	promPort   = flag.String("prom", ":9092", "Prometheus metrics export address and port.")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	cfg, err := coordinator.LoadConfig(*configPath)
	rtx.Must(err, "could not load coordinator config %q", *configPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	store := coordinator.NewStore(cfg)
	httpSrv := &http.Server{
		Addr:    *listenAddr,
		Handler: rest.NewRouter(store),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ovey-coordinator: listening on %s", *listenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		rtx.Must(httpSrv.Shutdown(shutdownCtx), "error shutting down coordinator HTTP server")
	case err := <-errCh:
		rtx.Must(err, "coordinator HTTP server exited")
	}
	log.Print("ovey-coordinator: shutting down")
}
