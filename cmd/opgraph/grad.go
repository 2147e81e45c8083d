package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/opgraph/internal/autodiff"
	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/loader"
)

func newGradCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grad FILE",
		Short: "Generate backward nodes for a graph description file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			g, err := loader.New(reg).LoadFile(args[0])
			if err != nil {
				return err
			}

			backward := autodiff.NewRegistry(a.logger)
			if err := autodiff.RegisterDefaults(backward); err != nil {
				return err
			}
			backward.Seal()
			gen := autodiff.NewGenerator(reg, backward, a.logger)

			bwd := graph.New(g.Name() + "_backward")
			var data [][]string
			for _, r := range g.Regions() {
				reversals, err := gen.ReverseRegion(r, bwd.AddRegion(r.Name()))
				if err != nil {
					return fmt.Errorf("region %s: %w", r.Name(), err)
				}
				for _, rv := range reversals {
					data = append(data, []string{
						r.Name(),
						rv.Forward.Name(),
						rv.Backward.Name(),
						mapping(rv.Result.GivenGradNames),
						mapping(rv.Result.RequiredGradNames),
					})
				}
			}

			table := newTable(cmd.OutOrStdout())
			table.SetHeader([]string{"REGION", "NODE", "BACKWARD", "GIVEN", "REQUIRED"})
			table.AppendBulk(data)
			table.Render()
			return nil
		},
	}
}

// mapping renders forward to backward connector names as "Y=dY, X=dX".
func mapping(m map[string]string) string {
	pairs := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		pairs = append(pairs, k+"="+m[k])
	}
	return strings.Join(pairs, ", ")
}
