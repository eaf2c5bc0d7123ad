package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360/flowkit/processor/text"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		chain    string
		args     string
		name     string
		scan     []string
		settings []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a linear pipeline and print what it collects",
		Long: `run builds a workflow from a comma separated chain of module names,
links each element to the next, starts it with --args and prints the lines
gathered by every text.collect element.`,
		Example: `  flowkit run --chain text.lines,text.upper,text.collect --args "$(cat notes.txt)"
  flowkit run --chain text.lines,text.grep,text.collect --set text.grep.pattern=^TODO --args "$(cat notes.txt)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modules := splitChain(chain)
			if len(modules) == 0 {
				return fmt.Errorf("--chain needs at least one module")
			}
			params, err := parseSettings(settings)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := a.runtime(ctx, scan)
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(ctx))

			w, err := rt.Chain(ctx, name, modules, params)
			if err != nil {
				return err
			}

			run := rt.Launch(ctx, w, args)
			select {
			case <-run.Done():
			case <-ctx.Done():
				a.logger.Warn("interrupted, stopping workflow", "workflow", w.Name())
				_ = run.Stop()
			}
			if err := run.Wait(context.WithoutCancel(ctx)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range w.Elements() {
				c, ok := e.Stage().Processor().(*text.Collect)
				if !ok {
					continue
				}
				for _, line := range c.Lines() {
					if _, err := fmt.Fprintln(out, line); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "Comma separated module names, root first")
	cmd.Flags().StringVar(&args, "args", "", "Run arguments handed to the root element")
	cmd.Flags().StringVar(&name, "name", "run", "Workflow name used in events")
	cmd.Flags().StringSliceVar(&scan, "scan", nil, "Extra module root to scan (repeatable)")
	cmd.Flags().StringArrayVar(&settings, "set", nil, "Parameter as <module|element>.<parameter>=<value> (repeatable)")
	_ = cmd.MarkFlagRequired("chain")
	return cmd
}
