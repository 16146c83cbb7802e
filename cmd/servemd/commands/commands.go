package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/servemd/core/internal/infrastructure/config"
	"github.com/servemd/core/internal/infrastructure/logger"
	"github.com/servemd/core/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve a directory tree over HTTP",
		Long:  "Serve the given directory (default \".\") over HTTP with markdown rendering and directory listings",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("serve.root", args[0])
			}
			runServer()
		},
	}

	cmd.Flags().StringP("addr", "a", "", "listen address as host:port")
	cmd.Flags().String("index", "", "index file served instead of a directory listing (e.g. index.html)")
	cmd.Flags().StringArray("header", nil, "extra response header as \"Name: Value\", repeatable")
	viper.BindPFlag("serve.index_file", cmd.Flags().Lookup("index"))
	viper.BindPFlag("serve.extra_headers", cmd.Flags().Lookup("header"))

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			host, port, err := splitAddr(addr)
			if err != nil {
				log.Fatalf("Invalid --addr: %v", err)
			}
			viper.Set("server.host", host)
			viper.Set("server.port", port)
		}
	}

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print servemd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("servemd v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	srv, err := server.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	appLogger.Info("Starting servemd",
		"addr", cfg.Server.ListenAddr(),
		"root", cfg.Serve.Root,
	)

	go func() {
		if err := srv.Start(cfg.Server.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Shutdown failed", "error", err)
	}
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("bad port in %q", addr)
	}
	return host, port, nil
}
