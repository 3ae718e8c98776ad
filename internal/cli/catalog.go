package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
	"github.com/matzehuels/factoryflow/pkg/render"
)

// itemsCommand lists every item.
func (c *CLI) itemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "items",
		Aliases: []string{"ls", "list"},
		Short:   "List all items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.loadDatabase(cmd.Context())
			if err != nil {
				return err
			}
			writeItems(cmd.OutOrStdout(), db)
			return nil
		},
	}
}

// recipesCommand lists recipes, all of them or the candidates for one item.
func (c *CLI) recipesCommand() *cobra.Command {
	var dot bool

	cmd := &cobra.Command{
		Use:   "recipes [ITEM]",
		Short: "List recipes",
		Long: `List all recipes in file order, or the candidate recipes for one item with
their selection indices. --dot prints the item/recipe graph in Graphviz format.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeItems(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.loadDatabase(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if dot {
				fmt.Fprint(w, render.RecipeDOT(db))
				return nil
			}
			if len(args) == 0 {
				writeRecipes(w, db)
				return nil
			}
			id, err := lookupItem(db, args[0])
			if err != nil {
				return err
			}
			if len(db.Candidates(id)) == 0 {
				printInfo(w, "%s is a raw material", db.Items().Name(id))
				return nil
			}
			writeCandidates(w, db, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "print the recipe graph as Graphviz DOT")
	return cmd
}

// optionalCommand lists items with alternative recipes.
func (c *CLI) optionalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "optional",
		Aliases: []string{"showoptional"},
		Short:   "List items with alternative recipes and the current choice",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.loadDatabase(cmd.Context())
			if err != nil {
				return err
			}
			writeOptional(cmd.OutOrStdout(), db)
			return nil
		},
	}
}

// selectCommand chooses the recipe used for an item and saves the choice.
func (c *CLI) selectCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "select [ITEM [INDEX]]",
		Aliases: []string{"setoptional"},
		Short:   "Choose the recipe used for an item",
		Long: `Choose the recipe used for an item and save the choice to the config file.

With ITEM and INDEX the choice is made directly. With only ITEM, or with no
arguments, an interactive picker opens.`,
		Args:              cobra.MaximumNArgs(2),
		ValidArgsFunction: c.completeItems(true),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.loadDatabase(cmd.Context())
			if err != nil {
				return err
			}

			var id item.ID
			var index int
			switch len(args) {
			case 2:
				if id, err = lookupItem(db, args[0]); err != nil {
					return err
				}
				if index, err = strconv.Atoi(args[1]); err != nil {
					return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid index %q", args[1])
				}
			case 1:
				if id, err = lookupItem(db, args[0]); err != nil {
					return err
				}
				var ok bool
				if index, ok, err = pickRecipe(cmd, db, id); err != nil || !ok {
					return err
				}
			default:
				var ok bool
				if id, ok, err = pickItem(cmd, db); err != nil || !ok {
					return err
				}
				if index, ok, err = pickRecipe(cmd, db, id); err != nil || !ok {
					return err
				}
			}

			return c.saveSelection(cmd, db, id, index)
		},
	}
}

func (c *CLI) saveSelection(cmd *cobra.Command, db *recipe.Database, id item.ID, index int) error {
	if err := db.Select(id, index); err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	name := db.Items().Name(id)
	cfg.SetSelection(name, index)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}

	w := cmd.OutOrStdout()
	printSuccess(w, "%s now uses: %s", name, recipe.FormatRecipe(db.Items(), db.Candidates(id)[index]))
	printFile(w, cfg.Path())
	return nil
}

func lookupItem(db *recipe.Database, name string) (item.ID, error) {
	id, ok := db.Items().Lookup(name)
	if !ok {
		return 0, ferrors.Wrap(ferrors.ErrCodeNotFound, recipe.ErrUnknownItem, "%q", item.Normalize(name))
	}
	return id, nil
}

// pickItem runs the item picker over the optional items.
func pickItem(cmd *cobra.Command, db *recipe.Database) (item.ID, bool, error) {
	opt := db.Optional()
	if len(opt) == 0 {
		printInfo(cmd.OutOrStdout(), "No item has alternative recipes")
		return 0, false, nil
	}
	final, err := runPicker(cmd, NewItemListModel(db, opt))
	if err != nil {
		return 0, false, err
	}
	m := final.(ItemListModel)
	if m.Selected == nil {
		return 0, false, nil
	}
	return *m.Selected, true, nil
}

// pickRecipe runs the recipe picker over id's candidates.
func pickRecipe(cmd *cobra.Command, db *recipe.Database, id item.ID) (int, bool, error) {
	if len(db.Candidates(id)) == 0 {
		return 0, false, ferrors.Wrap(ferrors.ErrCodeInvalidInput, recipe.ErrNoRecipe, "%s is a raw material", db.Items().Name(id))
	}
	final, err := runPicker(cmd, NewRecipeListModel(db, id))
	if err != nil {
		return 0, false, err
	}
	m := final.(RecipeListModel)
	if m.Selected < 0 {
		return 0, false, nil
	}
	return m.Selected, true, nil
}

func runPicker(cmd *cobra.Command, model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	return final, nil
}
