package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/khicago/nsindex"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	configFile string
	host       string
	port       int
	namespace  string
	indexType  string
	password   string
	db         int
	verbose    bool
	jsonOut    bool

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "nsindex",
		Short: "Namespaced string, list and record indexes on Redis",
		Long: `nsindex reads and writes namespaced indexes stored in Redis.
Every key is prefixed with the namespace; the index type fixes how values
are stored (string, strings, strings_unique or object).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&a.configFile, "config", "c", "", "YAML config file (flags override its values)")
	f.StringVar(&a.host, "host", nsindex.DefaultHost, "Redis host")
	f.IntVar(&a.port, "port", nsindex.DefaultPort, "Redis port")
	f.StringVarP(&a.namespace, "namespace", "n", "", "Index namespace")
	f.StringVarP(&a.indexType, "type", "t", nsindex.KindList.String(), "Index type: string, strings, strings_unique or object")
	f.StringVar(&a.password, "password", "", "Redis password")
	f.IntVar(&a.db, "db", 0, "Redis database number")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	f.BoolVar(&a.jsonOut, "json", false, "Output in JSON format")

	cmd.AddCommand(
		newPutCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newUpdateCmd(a),
		newSearchCmd(a),
		newKeysCmd(a),
		newSizeCmd(a),
		newClearCmd(a),
		newSeedCmd(a),
	)
	return cmd
}

// config merges the config file, if any, with explicitly set flags.
func (a *app) config(cmd *cobra.Command) (nsindex.Config, error) {
	cfg := nsindex.DefaultConfig()
	if a.configFile != "" {
		var err error
		if cfg, err = nsindex.LoadConfig(a.configFile); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if a.configFile == "" || flags.Changed("host") {
		cfg.Host = a.host
	}
	if a.configFile == "" || flags.Changed("port") {
		cfg.Port = a.port
	}
	if a.configFile == "" || flags.Changed("namespace") {
		cfg.Namespace = a.namespace
	}
	if a.configFile == "" || flags.Changed("type") {
		cfg.IndexType = a.indexType
	}
	if a.configFile == "" || flags.Changed("password") {
		cfg.Password = a.password
	}
	if a.configFile == "" || flags.Changed("db") {
		cfg.DB = a.db
	}
	return cfg, nil
}

// open connects the index described by the flags.
func (a *app) open(cmd *cobra.Command) (*nsindex.Index[string], error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opening index",
		"host", cfg.Host, "port", cfg.Port, "namespace", cfg.Namespace, "type", cfg.IndexType)
	return nsindex.Open[string](ctx(cmd), cfg,
		nsindex.WithLogger[string](nsindex.NewSlogLogger(a.logger)),
	)
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
