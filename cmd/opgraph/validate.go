package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/loader"
	"github.com/born-ml/opgraph/internal/onnx/operators"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate operator nodes of graph description files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			l := loader.New(reg)

			failed := 0
			for _, path := range args {
				g, err := l.LoadFile(path)
				if err != nil {
					return err
				}
				failures, err := operators.ValidateGraph(cmd.Context(), g, a.cfg.Validate.Workers)
				if err != nil {
					return err
				}
				a.logger.Debug("validated graph", zap.String("file", path), zap.Int("failures", len(failures)))

				if len(failures) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
					continue
				}
				failed++
				printFailures(cmd.OutOrStdout(), path, failures)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d graphs failed validation", failed, len(args))
			}
			return nil
		},
	}
}

func printFailures(w io.Writer, path string, failures []operators.Failure) {
	for _, f := range failures {
		var errs operators.ValidationErrors
		if !errors.As(f.Err, &errs) {
			fmt.Fprintf(w, "%s: %s: %v\n", path, f.Region, f.Err)
			continue
		}
		for _, e := range errs {
			fmt.Fprintf(w, "%s: %s: %v\n", path, f.Region, e)
		}
	}
}
