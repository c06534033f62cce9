// reachyd runs the robot motion-control runtime and its HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/grumpylabs/reachy-runtime/internal/config"
	"github.com/grumpylabs/reachy-runtime/internal/log"
	"github.com/grumpylabs/reachy-runtime/pkg/audit"
	"github.com/grumpylabs/reachy-runtime/pkg/events"
	"github.com/grumpylabs/reachy-runtime/pkg/robot"
	"github.com/grumpylabs/reachy-runtime/pkg/runtime"
	"github.com/grumpylabs/reachy-runtime/pkg/web"
)

func main() {
	godotenv.Load()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	robotIP := flag.String("robot-ip", "", "Robot IP address (overrides ROBOT_IP env var)")
	webPort := flag.String("port", "", "HTTP API port (overrides REACHY_WEB_PORT env var)")
	noRobot := flag.Bool("no-robot", false, "Run without robot hardware")
	flag.Parse()

	cfg := config.FromEnv()
	if *debug {
		cfg.LogLevel = "debug"
	}
	if *robotIP != "" {
		cfg.RobotIP = *robotIP
	}
	if *webPort != "" {
		cfg.WebPort = *webPort
	}
	log.Init(cfg.LogLevel)

	var store audit.Store = audit.NopStore{}
	var recent web.RecentReader
	if cfg.AuditDBPath != "" {
		db, err := audit.Open(cfg.AuditDBPath)
		if err != nil {
			log.Error("failed to open audit store", "path", cfg.AuditDBPath, "err", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		recent = db
	}

	hub := events.NewHub()
	go hub.Run()

	var mini robot.Mini
	if !*noRobot {
		mini = robot.NewHTTPMini(cfg.RobotAPIURL())
	}

	app := runtime.New(cfg, mini, store, hub)
	server := web.NewServer(cfg.WebPort, app, hub, recent)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(ctx)
	})
	g.Go(func() error {
		if err := server.Start(); err != nil {
			app.Fail(err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		app.Stop()
		return server.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error("runtime exited with error", "err", err)
		os.Exit(1)
	}
}
