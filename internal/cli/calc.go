package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/planner"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

type calcOptions struct {
	owned    string
	tree     bool
	format   string
	output   string
	selects  []string
	refresh  bool
	noCache  bool
	detailed bool
	scale    float64
}

// calcCommand creates the calc command.
func (c *CLI) calcCommand() *cobra.Command {
	opts := calcOptions{format: string(planner.FormatText)}

	cmd := &cobra.Command{
		Use:   "calc SPEC",
		Short: "Compute the production chain for target rates",
		Long: `Compute the production chain for target rates.

SPEC lists targets as amount,item pairs joined by '+'. An optional second
half after ';' lists stock that already exists and is used up first:

  factoryflow calc -r recipes.txt "2,circuit + gear"
  factoryflow calc -r recipes.txt "2,circuit;4,iron plate" --tree
  factoryflow calc -r recipes.txt "1,engine" --format svg -o engine.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCalc(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.owned, "owned", "", "stock already owned, e.g. \"4,iron plate + coal\"")
	cmd.Flags().BoolVarP(&opts.tree, "tree", "t", false, "include the expansion tree")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json, csv, dot, svg, png, pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringArrayVar(&opts.selects, "select", nil, "use recipe index for an item, e.g. --select gear=1 (repeatable)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if the plan is cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the plan cache")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show rates and factory counts in graph labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")

	return cmd
}

func (c *CLI) runCalc(cmd *cobra.Command, spec string, opts calcOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	w := cmd.OutOrStdout()

	format := planner.Format(opts.format)
	if err := planner.ValidateFormat(format); err != nil {
		return err
	}
	if (format == planner.FormatPNG || format == planner.FormatPDF) && opts.output == "" {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "%s output needs --output", format)
	}
	if opts.detailed && !format.Graphical() {
		printWarning(cmd.ErrOrStderr(), "--detailed only applies to graph formats")
	}

	db, err := c.loadDatabase(ctx)
	if err != nil {
		return err
	}
	if err := applySelects(db, opts.selects); err != nil {
		return err
	}

	req, err := planner.ParseRequest(db, spec)
	if err != nil {
		return err
	}
	if opts.owned != "" {
		owned, err := recipe.ParseAmounts(opts.owned, db.Items())
		if err != nil {
			return err
		}
		req.Owned = append(req.Owned, owned...)
	}
	req.Tree = opts.tree || format.Graphical()
	req.Refresh = opts.refresh

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	p, hit, err := runner.PlanWithCacheInfo(ctx, db, req)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Planned %d items", p.Items()))

	if format == planner.FormatText && opts.output == "" {
		fmt.Fprint(w, renderPlan(p, opts.tree))
		printStats(w, p.Items(), len(p.Factories), hit)
		return nil
	}

	var spinner *Spinner
	if format == planner.FormatSVG || format == planner.FormatPNG || format == planner.FormatPDF {
		spinner = newSpinnerWithContext(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Rendering %s...", format))
		spinner.Start()
	}
	data, err := runner.Render(ctx, p, planner.RenderOptions{
		Format:   format,
		Detailed: opts.detailed,
		Scale:    opts.scale,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess(w, "Wrote %s plan", format)
	printFile(w, opts.output)
	return nil
}
