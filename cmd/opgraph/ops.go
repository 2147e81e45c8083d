package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/opgraph/internal/onnx/schema"
)

func newOpsCmd(a *app) *cobra.Command {
	ops := &cobra.Command{
		Use:   "ops",
		Short: "Inspect registered operators",
	}

	ops.AddCommand(&cobra.Command{
		Use:     "list [prefix]",
		Aliases: []string{"ls"},
		Short:   "List operators",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			listOperators(cmd.OutOrStdout(), reg, prefix)
			return nil
		},
	})

	ops.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Show an operator schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			s, ok := reg.Lookup(args[0])
			if !ok {
				if hint, ok := reg.Suggest(args[0]); ok {
					return fmt.Errorf("unknown operator %q (did you mean %q?)", args[0], hint)
				}
				return fmt.Errorf("unknown operator %q", args[0])
			}
			showOperator(cmd.OutOrStdout(), s)
			return nil
		},
	})
	return ops
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func listOperators(w io.Writer, reg *schema.Registry, prefix string) {
	var data [][]string
	for _, name := range reg.Names() {
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		s, _ := reg.Lookup(name)
		data = append(data, []string{
			name,
			s.Domain(),
			strconv.Itoa(s.SinceVersion()),
			signature(s.Inputs()),
			signature(s.Outputs()),
		})
	}

	table := newTable(w)
	table.SetHeader([]string{"NAME", "DOMAIN", "SINCE", "INPUTS", "OUTPUTS"})
	table.AppendBulk(data)
	table.Render()
}

// signature renders parameters compactly: optional ones end in "?",
// variadic ones in "...".
func signature(params []schema.ParameterSpec) string {
	names := make([]string, len(params))
	for i, p := range params {
		switch p.Kind {
		case schema.Optional:
			names[i] = p.Name + "?"
		case schema.Variadic:
			names[i] = p.Name + "..."
		default:
			names[i] = p.Name
		}
	}
	return strings.Join(names, ", ")
}

func showOperator(w io.Writer, s *schema.OperatorSchema) {
	section := func(header string, columns []string, rows [][]string) {
		if len(rows) == 0 {
			return
		}
		fmt.Fprintln(w, " ", header)
		table := newTable(w)
		if columns != nil {
			table.SetHeader(columns)
		}
		table.AppendBulk(rows)
		table.Render()
		fmt.Fprintln(w)
	}

	section("Operator", nil, [][]string{
		{"name", s.Name()},
		{"domain", s.Domain()},
		{"since version", strconv.Itoa(s.SinceVersion())},
	})

	params := func(list []schema.ParameterSpec) (rows [][]string) {
		for _, p := range list {
			row := []string{p.Name, p.Kind.String(), p.TypeStr}
			if p.Kind == schema.Variadic && !p.Homogeneous {
				row[1] += " (heterogeneous)"
			}
			rows = append(rows, row)
		}
		return rows
	}
	section("Inputs", []string{"NAME", "KIND", "TYPE"}, params(s.Inputs()))
	section("Outputs", []string{"NAME", "KIND", "TYPE"}, params(s.Outputs()))

	var attrs [][]string
	for _, a := range s.Attributes() {
		def := ""
		if a.Default != nil {
			def = a.Default.String()
		}
		attrs = append(attrs, []string{a.Name, a.Type.String(), strconv.FormatBool(a.Required), def})
	}
	section("Attributes", []string{"NAME", "TYPE", "REQUIRED", "DEFAULT"}, attrs)

	var constraints [][]string
	for _, tc := range s.TypeConstraints() {
		types := tc.Types()
		names := make([]string, len(types))
		for i, dt := range types {
			names[i] = dt.String()
		}
		constraints = append(constraints, []string{tc.Name(), strings.Join(names, ", ")})
	}
	section("Type constraints", []string{"NAME", "TYPES"}, constraints)

	if doc := strings.TrimSpace(s.Doc()); doc != "" {
		fmt.Fprintln(w, " ", "Doc")
		fmt.Fprintln(w, "   ", doc)
	}
}
