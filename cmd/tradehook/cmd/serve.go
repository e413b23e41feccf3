package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradehook/broker"
	"tradehook/broker/oanda"
	"tradehook/config"
	"tradehook/engine"
	"tradehook/intent"
	"tradehook/journal"
	"tradehook/notify"
	"tradehook/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook bridge",
	Long:  `Start the HTTP server and process incoming trade alerts until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	timeout, err := cfg.Oanda.ParseTimeout()
	if err != nil {
		return err
	}

	gateway := broker.WithCallTimeout(oanda.NewClient(oanda.Config{
		Practice: oanda.Credentials(cfg.Oanda.Practice),
		Live:     oanda.Credentials(cfg.Oanda.Live),
		Debug:    cfg.Oanda.Debug,
		Timeout:  timeout,
	}), timeout)

	recorder, err := buildRecorder(cfg.Journal)
	if err != nil {
		return err
	}
	defer recorder.Close()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Discord.WebhookURL != "" {
		notifier = notify.NewDiscord(cfg.Discord.WebhookURL)
	}

	builder := intent.NewBuilder(gateway, cfg.Account.Currency, cfg.Risk.Fraction)
	processor := engine.New(gateway, builder, recorder, notifier)

	srv, err := server.New(cfg.Server, cfg.Auth, processor)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("tradehook: listening on %s (oanda debug=%v)", cfg.Server.Addr, cfg.Oanda.Debug)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("tradehook: received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildRecorder wires the audit trail: a Sheets primary when configured,
// always backed by a local sink that cannot be unconfigured away.
func buildRecorder(cfg config.JournalConfig) (journal.Recorder, error) {
	var local journal.Recorder
	var err error
	switch cfg.Local {
	case "csv":
		local, err = journal.NewCSV(cfg.CSV)
	default:
		local, err = journal.NewSQLite(cfg.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open local journal: %w", err)
	}

	if !cfg.Sheets.Configured() {
		log.Printf("tradehook: sheets sink not configured, journaling locally only")
		return journal.NewFallback(nil, local), nil
	}

	primary, err := journal.NewSheets(context.Background(), cfg.Sheets)
	if err != nil {
		// The trade path must not depend on the remote sink existing.
		log.Printf("tradehook: sheets sink unavailable, journaling locally only: %v", err)
		return journal.NewFallback(nil, local), nil
	}
	return journal.NewFallback(primary, local), nil
}
