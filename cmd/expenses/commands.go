package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	"expenses/internal/app"
	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/view"
)

const usage = `usage: expenses <command> [flags]

commands:
  list        [-start d] [-end d] [-category c] [-min n] [-max n]
  add         -amount n [-category c] [-note s] [-date yyyy-mm-dd]
  delete      [-y] <id>
  categories  [add <name> | delete [-y] <id>]
  dashboard   [-width n]
  export      [filters] [-o file]`

var errUsage = errors.New(usage)

// errAborted is returned when a confirmation prompt is declined.
var errAborted = errors.New("aborted")

type command struct {
	state      *app.State
	in         io.Reader
	out        io.Writer
	exportPath string
}

func (c *command) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "help", "-h", "--help":
		fmt.Fprintln(c.out, usage)
		return nil
	}
	if err := c.state.Load(ctx); err != nil {
		return err
	}
	name, rest := args[0], args[1:]
	switch name {
	case "list":
		return c.list(rest)
	case "add":
		return c.add(ctx, rest)
	case "delete", "rm":
		return c.deleteExpense(ctx, rest)
	case "categories", "cat":
		return c.categories(ctx, rest)
	case "dashboard":
		return c.dashboard(rest)
	case "export":
		return c.export(rest)
	default:
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// filterFlags registers the shared filter flags and returns a func that
// parses them into a core.Filter once fs.Parse has run.
func filterFlags(fs *flag.FlagSet) func() (core.Filter, error) {
	keys := []string{"start", "end", "category", "min", "max"}
	values := make(map[string]*string, len(keys))
	for _, k := range keys {
		values[k] = fs.String(k, "", k+" filter")
	}
	return func() (core.Filter, error) {
		q := url.Values{}
		for k, v := range values {
			q.Set(k, *v)
		}
		return core.ParseFilter(q)
	}
}

func (c *command) list(args []string) error {
	fs := newFlagSet("list")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, view.ExpenseTable(c.state.Filtered(f), c.state.Location()))
	return nil
}

func (c *command) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	amount := fs.String("amount", "", "amount, dot or comma decimal")
	category := fs.String("category", "", "category name")
	note := fs.String("note", "", "free text")
	date := fs.String("date", "", "yyyy-mm-dd, today when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amount == "" && fs.NArg() > 0 {
		*amount = fs.Arg(0)
	}
	e, err := c.state.AddExpense(ctx, app.NewExpenseInput{
		Amount:   *amount,
		Category: *category,
		Note:     *note,
		Date:     *date,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added %s: %s %s on %s\n", e.ID, core.FormatVND(e.Amount), e.Category,
		core.FormatDay(e.Day(c.state.Location())))
	return nil
}

func (c *command) deleteExpense(ctx context.Context, args []string) error {
	fs := newFlagSet("delete")
	yes := fs.Bool("y", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	id := fs.Arg(0)
	if !*yes && !c.confirm(fmt.Sprintf("Delete expense %s?", id)) {
		return errAborted
	}
	if err := c.state.DeleteExpense(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted %s\n", id)
	return nil
}

func (c *command) categories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, view.Categories(c.state.Categories()))
		return nil
	}
	switch args[0] {
	case "add":
		name := strings.Join(args[1:], " ")
		cat, err := c.state.AddCategory(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Added category %s (%s)\n", cat.Name, cat.ID)
		return nil
	case "delete", "rm":
		fs := newFlagSet("categories delete")
		yes := fs.Bool("y", false, "skip confirmation")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errUsage
		}
		id := fs.Arg(0)
		if !*yes && !c.confirm(fmt.Sprintf("Delete category %s?", id)) {
			return errAborted
		}
		if err := c.state.DeleteCategory(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted category %s\n", id)
		return nil
	default:
		return errUsage
	}
}

func (c *command) dashboard(args []string) error {
	fs := newFlagSet("dashboard")
	width := fs.Int("width", view.DefaultBarWidth, "longest bar in cells")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Fprintln(c.out, view.Dashboard(c.state.Dashboard(), *width))
	return nil
}

func (c *command) export(args []string) error {
	fs := newFlagSet("export")
	filter := filterFlags(fs)
	path := fs.String("o", c.exportPath, "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	rows := c.state.Filtered(f)
	if err := export.SaveXLSX(*path, rows, c.state.Location()); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Exported %d expenses to %s\n", len(rows), *path)
	return nil
}

func (c *command) confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
