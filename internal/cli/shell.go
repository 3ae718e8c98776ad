package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/planner"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

const shellPrompt = "Items to produce/s (amount,item + ...): "

const shellHelp = `Enter a request such as "2,circuit + gear" or "2,circuit;4,iron plate"
(stock after ';' is used up first). Other commands:

  ls, list, items          list all items
  recipes [ITEM]           list all recipes, or the candidates for ITEM
  showoptional             list items with alternative recipes
  setoptional [ITEM [N]]   choose recipes (prompts when N is omitted)
  tree                     toggle the tree view
  ?, help                  show this help
  exit, quit               leave the shell
`

// shellCommand creates the interactive calculator loop.
func (c *CLI) shellCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive calculator",
		Long: `Interactive calculator. Recipe choices made with setoptional last for the
session; use "factoryflow select" to save them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := c.loadDatabase(ctx)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			sh := &shell{
				db:     db,
				runner: runner,
				in:     bufio.NewScanner(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
			}
			return sh.run(ctx)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the plan cache")
	return cmd
}

type shell struct {
	db     *recipe.Database
	runner *planner.Runner
	in     *bufio.Scanner
	out    io.Writer
	tree   bool
}

func (s *shell) run(ctx context.Context) error {
	printInfo(s.out, "Type ? for help")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, shellPrompt)
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		quit, err := s.exec(ctx, line)
		if err != nil {
			printError(s.out, "%s", ferrors.UserMessage(err))
		}
		if quit {
			return nil
		}
	}
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// exec runs one input line and reports whether the shell should exit.
// Commands without arguments must match the whole line. recipes and
// setoptional take arguments unless the line names an item, which is a
// request for one unit of it.
func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "exit", "quit":
		return true, nil
	case "?", "help":
		fmt.Fprint(s.out, shellHelp)
		return false, nil
	case "ls", "list", "items":
		writeItems(s.out, s.db)
		return false, nil
	case "recipes":
		writeRecipes(s.out, s.db)
		return false, nil
	case "showoptional":
		writeOptional(s.out, s.db)
		return false, nil
	case "setoptional":
		return false, s.setOptional("")
	case "tree":
		s.tree = !s.tree
		state := "off"
		if s.tree {
			state = "on"
		}
		printInfo(s.out, "Tree view %s", state)
		return false, nil
	}

	if _, isItem := s.db.Items().Lookup(line); !isItem {
		word, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(word) {
		case "recipes":
			id, err := lookupItem(s.db, rest)
			if err != nil {
				return false, err
			}
			writeCandidates(s.out, s.db, id)
			return false, nil
		case "setoptional":
			return false, s.setOptional(rest)
		}
	}
	return false, s.calc(ctx, line)
}

func (s *shell) calc(ctx context.Context, spec string) error {
	req, err := planner.ParseRequest(s.db, spec)
	if err != nil {
		return err
	}
	req.Tree = s.tree
	p, hit, err := s.runner.PlanWithCacheInfo(ctx, s.db, req)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, renderPlan(p, s.tree))
	printStats(s.out, p.Items(), len(p.Factories), hit)
	return nil
}

// setOptional handles "setoptional", "setoptional ITEM" and
// "setoptional ITEM N". Without N it prompts for each item in turn; an empty
// answer keeps the current recipe.
func (s *shell) setOptional(args string) error {
	if args == "" {
		for _, id := range s.db.Optional() {
			if err := s.promptRecipe(id); err != nil {
				return err
			}
		}
		return nil
	}

	name := args
	if i := strings.LastIndexByte(args, ' '); i > 0 {
		if n, err := strconv.Atoi(args[i+1:]); err == nil {
			id, err := lookupItem(s.db, args[:i])
			if err != nil {
				return err
			}
			return s.choose(id, n)
		}
	}
	id, err := lookupItem(s.db, name)
	if err != nil {
		return err
	}
	return s.promptRecipe(id)
}

func (s *shell) promptRecipe(id item.ID) error {
	reg := s.db.Items()
	if len(s.db.Candidates(id)) == 0 {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, recipe.ErrNoRecipe, "%s is a raw material", reg.Name(id))
	}
	fmt.Fprintln(s.out, StyleTitle.Render(reg.Name(id)))
	writeCandidates(s.out, s.db, id)
	fmt.Fprintf(s.out, "Recipe [%d]: ", s.db.Selected(id))

	answer, ok := s.readLine()
	if !ok || answer == "" {
		return nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid recipe index %q", answer)
	}
	return s.choose(id, n)
}

func (s *shell) choose(id item.ID, n int) error {
	if err := s.db.Select(id, n); err != nil {
		return err
	}
	reg := s.db.Items()
	printSuccess(s.out, "%s now uses: %s", reg.Name(id), recipe.FormatRecipe(reg, s.db.Candidates(id)[n]))
	return nil
}
