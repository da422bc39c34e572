package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemetry-viewer/src/config"
	pb "telemetry-viewer/src/grpc_control"
	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/metrics"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/server"
	"telemetry-viewer/src/session"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------

// run wires every component and blocks until SIGINT/SIGTERM or a server fails
func run(conf *config.Config, configPath string, autostart bool, appLogger *logger.Logger) error {
	cfg := conf.MConfig

	// 1. Components
	journal, err := setupJournal(cfg, appLogger)
	if err != nil {
		return err
	}
	defer journal.Close()

	m := metrics.NewMetrics()
	authority := setupAuthority(cfg)
	dialer := setupTransport(cfg)

	viewer := session.NewSession(cfg, authority, dialer, journal, m, logger.NewLogger(conf, "Session"))
	srv := server.NewViewerServer(cfg, viewer, journal, authority, m, logger.NewLogger(conf, "Server"))
	viewer.SetExchanger(srv)

	// 2. Session dispatcher, outlives the servers so shutdown can disconnect
	sessionCtx, stopSession := context.WithCancel(context.Background())
	sessionDone := make(chan struct{})
	go func() {
		viewer.Run(sessionCtx)
		close(sessionDone)
	}()

	// 3. Config hot reload
	watcher, err := config.NewWatcher(configPath, logger.NewLogger(conf, "ConfigWatcher"), func(v models.MViewerConfig) {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := viewer.ApplyViewer(ctx, v); err != nil {
			appLogger.Warning("Ignoring reloaded view settings: %v", err)
		}
	})
	if err != nil {
		appLogger.Warning("Config hot reload disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	// 4. Servers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		grpcServer *grpc.Server
		lis        net.Listener
		grpcAddr   string
	)
	if cfg.GrpcPort > 0 {
		grpcAddr = fmt.Sprintf("%s:%d", cfg.GrpcHost, cfg.GrpcPort)
		lis, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			stopSession()
			<-sessionDone
			return fmt.Errorf("failed to listen for gRPC on %s: %w", grpcAddr, err)
		}
		grpcServer = pb.NewServer(viewer, logger.NewLogger(conf, "ControlService"))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	if grpcServer != nil {
		g.Go(func() error {
			appLogger.Info("Starting gRPC Control Server on %s", grpcAddr)
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
	}

	// 5. Optional autostart
	if autostart {
		go func() {
			errHandler := helpers.NewErrorHandler(appLogger)
			if err := viewer.Start(gctx, ""); err != nil {
				errHandler.Handle(err, "autostart")
				return
			}
			appLogger.Info("Autostarted on %s", cfg.Viewer.Topic)
		}()
	}

	// 6. Shutdown
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")

		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := viewer.Disconnect(dctx); err != nil {
			appLogger.Warning("Disconnect on shutdown failed: %v", err)
		}
		stopSession()
		<-sessionDone

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return srv.Stop()
	})

	return g.Wait()
}
