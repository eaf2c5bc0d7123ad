package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/module"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB000")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newModulesCmd(a *app) *cobra.Command {
	var (
		scan []string
		kind string
	)
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the units the runtime can load",
		Example: `  flowkit modules
  flowkit modules --kind algorithm --scan ./plugins`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			want, err := component.ParseKind(kind)
			if err != nil {
				return err
			}

			rt, err := a.runtime(cmd.Context(), scan)
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			var shown []module.Descriptor
			for _, d := range rt.Manager().List() {
				if want == component.AnyKind || d.Kind == want {
					shown = append(shown, d)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderDescriptors(shown))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&scan, "scan", nil, "Extra module root to scan (repeatable)")
	cmd.Flags().StringVar(&kind, "kind", "any", "Only list units of this kind: data, algorithm or any")
	return cmd
}

func renderDescriptors(ds []module.Descriptor) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("NAME", "VERSION", "KIND", "SOURCE", "IDENTIFIER").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, d := range ds {
		t.Row(d.Name, d.Version.String(), d.Kind.String(), d.Source(), d.Identifier)
	}
	return t.Render()
}
