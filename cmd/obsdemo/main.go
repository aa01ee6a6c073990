package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/AnatoleLucet/obs"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	configPath string
	debug      bool
	testSync   bool
	traceSpans bool
	showStats  bool
)

func main() {
	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "obsdemo",
	Short:        "Run a small note editing session through the reactive runtime",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := obs.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("debug") {
			cfg.Debug = debug
		}
		if cmd.Flags().Changed("test-sync") {
			cfg.TestSync = testSync
		}

		opts := []obs.Option{}
		if traceSpans {
			exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
			if err != nil {
				return fmt.Errorf("create stdout trace exporter: %w", err)
			}

			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			defer func() { _ = tp.Shutdown(context.Background()) }()

			opts = append(opts, obs.WithTracerProvider(tp))
		}

		return runDemo(cmd.OutOrStdout(), cfg, showStats, opts...)
	},
}

func init() {
	// glog flags (-v, -logtostderr, ...)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Trace every mutation, subscription and dispose")
	rootCmd.Flags().BoolVar(&testSync, "test-sync", false, "Re-render through the synchronous barrier")
	rootCmd.Flags().BoolVar(&traceSpans, "trace", false, "Print flush spans to stderr")
	rootCmd.Flags().BoolVar(&showStats, "stats", true, "Print the runtime metrics when done")
}
