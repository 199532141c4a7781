// Command port4k-server runs the Port4k MUD server: a telnet listener, a
// web-socket listener, and the background loot-spawn tick, all sharing one
// internal/registry.Registry composition root (spec.md §6, §9).
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/port4k/port4k/internal/config"
	"github.com/port4k/port4k/internal/logx"
	"github.com/port4k/port4k/internal/registry"
	"github.com/port4k/port4k/internal/store/pgstore"
	"github.com/port4k/port4k/internal/transport/telnet"
	"github.com/port4k/port4k/internal/transport/wsock"
)

func main() {
	root := &cobra.Command{
		Use:   "port4k-server",
		Short: "Run the Port4k MUD server",
		RunE:  run,
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "port4k-server: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logx.New(cfg.LogFilter)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer pg.Close()

	reg := registry.New(pg, log)
	defer reg.Close()

	go reg.RunLootSpawner(ctx)

	ln, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		return fmt.Errorf("listen telnet %s: %w", cfg.TCPAddr, err)
	}
	log.Info("telnet listening", zap.String("addr", cfg.TCPAddr))

	httpSrv := &http.Server{Addr: cfg.WebSocketAddr, Handler: wsock.Handler(reg.Dispatcher(), log)}

	errCh := make(chan error, 2)
	go func() { errCh <- telnet.Serve(ctx, ln, reg.Dispatcher(), log) }()
	go func() {
		log.Info("websocket listening", zap.String("addr", cfg.WebSocketAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		_ = httpSrv.Shutdown(context.Background())
		return nil
	case err := <-errCh:
		cancel()
		return err
	}
}
