package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sailq/rakeflow/app"
	"github.com/sailq/rakeflow/config"
)

var (
	cfgPath    string
	ordersPath string
	dateArg    string
)

var rootCmd = &cobra.Command{
	Use:   "rakeflow",
	Short: "Rake allocation and dispatch planning for the stockyard network",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVarP(&ordersPath, "orders", "o", "", "YAML order book loaded before the command runs")
	rootCmd.PersistentFlags().StringVarP(&dateArg, "date", "d", "", "planning day, YYYY-MM-DD (default today)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup builds the service from the flags and loads the order book.
func setup(ctx context.Context) (*app.Service, time.Time, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	date := time.Now().UTC()
	if dateArg != "" {
		parsed, err := time.Parse("2006-01-02", dateArg)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parse date: %w", err)
		}
		date = parsed
	}

	svc, err := app.New(cfg)
	if err != nil {
		return nil, time.Time{}, err
	}
	svc.Start(ctx)

	if ordersPath != "" {
		n, err := svc.LoadOrders(ctx, ordersPath, date)
		if err != nil {
			return nil, time.Time{}, err
		}
		fmt.Fprintf(os.Stderr, "loaded %d orders from %s\n", n, ordersPath)
	}
	return svc, date, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printJSON writes the value to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
