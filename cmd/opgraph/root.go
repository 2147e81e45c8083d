package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/config"
	"github.com/born-ml/opgraph/internal/logging"
	"github.com/born-ml/opgraph/internal/onnx/catalog"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

const version = "v0.1.0-dev"

// app holds the state shared by subcommands once the root pre-run has
// loaded configuration.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
	schemas *schema.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	v := viper.New()

	root := &cobra.Command{
		Use:           "opgraph",
		Short:         "Inspect, validate and differentiate ONNX operator graphs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, v)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $HOME/.opgraph/config.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	flags.StringSlice("catalog", nil, "extra operator catalog file (repeatable)")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("catalogs", flags.Lookup("catalog"))

	root.AddCommand(
		newVersionCmd(),
		newOpsCmd(a),
		newValidateCmd(a),
		newGradCmd(a),
		newConvertCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// registry imports the built-in catalogs followed by the configured ones
// and seals the result.
func (a *app) registry() (*schema.Registry, error) {
	if a.schemas != nil {
		return a.schemas, nil
	}

	sources := catalog.Sources{catalog.Builtin()}
	for _, path := range a.cfg.Catalogs {
		c, err := catalog.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		sources = append(sources, c)
	}

	reg := schema.NewRegistry(a.logger)
	if _, err := reg.ImportAll(sources); err != nil {
		return nil, err
	}
	reg.Seal()
	a.schemas = reg
	return reg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opgraph %s\n", version)
		},
	}
}
