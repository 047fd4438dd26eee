// Command oveyd is the ovey daemon: it bridges the rdma-ovey kernel
// module's two genetlink sockets and its character device to one or more
// overlay-network coordinators over HTTP. Grounded on
// original_source/ovey_daemon/src/main.rs's construct-everything-in-main
// style, following the teacher's own main.go (flag/flagx/rtx/prometheusx,
// log.Lshortfile, defer-based cleanup) rather than a framework.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/ovey-io/ovey/daemon"
	"github.com/ovey-io/ovey/kreq"
	"github.com/ovey-io/ovey/ocp"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	configPath = flag.String("config", os.Getenv(daemon.ConfigEnvVar), "Path to the daemon's coordinator config file. Defaults to $"+daemon.ConfigEnvVar+".")
	devicePath = flag.String("device", "/dev/ovey", "Path to the rdma-ovey kernel request character device.")
	promPort   = flag.String("prom", ":9091", "Prometheus metrics export address and port.")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	rtx.Must(checkConfigPath(*configPath), "no coordinator config given: pass -config or set $%s", daemon.ConfigEnvVar)
	cfg, err := daemon.LoadConfig(*configPath)
	rtx.Must(err, "could not load coordinator config %q", *configPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	o, err := ocp.Connect(ctx)
	rtx.Must(err, "could not connect to rdma-ovey kernel module over genetlink")
	defer o.Close()

	rtx.Must(o.DaemonHello(), "DaemonHello handshake failed")
	defer func() {
		if err := o.DaemonBye(); err != nil {
			log.Printf("oveyd: DaemonBye: %v", err)
		}
	}()

	devFile, err := os.OpenFile(*devicePath, os.O_RDWR, 0)
	rtx.Must(err, "could not open kernel request device %q", *devicePath)
	defer devFile.Close()

	orch := &daemon.Orchestrator{
		Ocp:    o,
		Kreq:   kreq.NewDevice(devFile),
		Client: daemon.NewCoordinatorClient(cfg, 0),
	}

	log.Printf("oveyd: serving kernel requests from %s", *devicePath)
	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("oveyd: orchestrator exited: %v", err)
	}
	log.Print("oveyd: shutting down")
}

func checkConfigPath(path string) error {
	if path == "" {
		return os.ErrInvalid
	}
	return nil
}
