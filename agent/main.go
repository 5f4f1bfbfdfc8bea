//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reach3d/reachlink/agent/communications"
	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/agent/healthz"
	"github.com/reach3d/reachlink/agent/journal"
	"github.com/reach3d/reachlink/agent/moonraker"
	"github.com/reach3d/reachlink/agent/queuestore"
	"github.com/reach3d/reachlink/agent/scheduler"
	"github.com/reach3d/reachlink/agent/token"
	"github.com/reach3d/reachlink/common/transport"
	"github.com/reach3d/reachlink/common/ulogger"
)

func main() {
	root := &cobra.Command{
		Use:           global.Name,
		Short:         "Bridges a Moonraker printer to the Reach3D cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("%s %s\n", global.Name, global.Version)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the agent loop",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", global.Name, err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := global.Load()
	if err != nil {
		// Configuration problems are fatal before the loop starts.
		return fmt.Errorf("configuration: %w", err)
	}

	logger, err := ulogger.New(
		ulogger.WithPrefix(global.Name),
		ulogger.WithStdout(true),
		ulogger.WithDebug(conf.Debug),
		ulogger.WithLogFile(conf.LogFile),
	)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	logger.Info().
		Str("version", global.Version).
		Str("printer_id", conf.PrinterID).
		Str("mode", conf.Mode()).
		Msg("starting")

	tokens := token.NewManager(conf.StoreToken, conf.RefreshMargin)

	device, err := moonraker.New(
		moonraker.WithLogger(logger),
		moonraker.WithURL(conf.MoonrakerURL),
		moonraker.WithPrinterIP(conf.PrinterIP),
	)
	if err != nil {
		return fmt.Errorf("moonraker client: %w", err)
	}

	opts := []scheduler.Option{
		scheduler.WithLogger(logger),
		scheduler.WithConfig(conf),
		scheduler.WithTokenManager(tokens),
		scheduler.WithDevice(device),
	}

	var channels []scheduler.CommandChannel

	if conf.RelayEnabled() {
		relay, err := communications.New(
			communications.WithLogger(logger),
			communications.WithConfig(conf),
			communications.WithTokenManager(tokens),
		)
		if err != nil {
			return fmt.Errorf("relay client: %w", err)
		}
		opts = append(opts, scheduler.WithRelay(relay))
		channels = append(channels, relay)
	}

	if conf.StoreEnabled() {
		store, err := queuestore.New(
			queuestore.WithLogger(logger),
			queuestore.WithURL(conf.StoreURL),
			queuestore.WithPrinterID(conf.PrinterID),
			queuestore.WithTokenManager(tokens),
		)
		if err != nil {
			return fmt.Errorf("queue-store client: %w", err)
		}
		opts = append(opts, scheduler.WithStore(store))
		channels = append(channels, store)
	}

	opts = append(opts, scheduler.WithCommandChannels(channels...))

	if conf.DataDir != "" {
		j, err := journal.Open(conf.JournalPath())
		if err != nil {
			// The agent still works without redelivery protection.
			logger.Warn().Err(err).Msg("command journal unavailable")
		} else {
			defer j.Close()
			opts = append(opts, scheduler.WithJournal(j))
		}
	}

	loop := scheduler.New(opts...)

	if conf.HealthPort > 0 {
		health := healthz.New(conf.HealthPort, logger, loop.Snapshot)
		health.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = health.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = loop.Run(ctx)
	if errors.Is(err, transport.ErrCredentialRevoked) {
		logger.Error().Msg("exiting: this printer's credential was revoked")
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}
