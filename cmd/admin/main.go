package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/logging"
)

const usage = `Simple CMS Admin CLI

Inspect and repair the snapshots behind the content admin.

USAGE:
  admin <command> [options]

COMMANDS:
  categories   List the categories of a kind with their member counts
  members      List the items of one category
  assign       Move one item to a category (empty --category unassigns)
  orphans      List items whose category no longer exists
  related      Show the related-content selection of one record
  snapshots    List stored snapshot names
  dump         Print one stored snapshot as written
  copy         Copy snapshots into another store

ENVIRONMENT VARIABLES:
  STORE_URL         memory://, file://<dir>, s3://<bucket>, postgres://..., redis://..., sqlite:<path>
  DB_SCHEMA         PostgreSQL schema name (default: cms)
  LOG_LEVEL         debug, info, warn, error (default: info)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin categories --kind=products
  admin members --kind=services --category=<id>
  admin assign --kind=products --item=<id> --category=<id>
  admin related --owner=part --id=<id> --json
  admin snapshots --prefix=home_
  admin dump --name=product-categories
  admin copy --to=postgres://localhost/cms

OPTIONS:
  --kind=<kind>          products or services (default: products)
  --category=<id>        Category id
  --item=<id>            Item id
  --owner=<owner>        product, service, part or casestudy
  --id=<id>              Record id
  --name=<name>          Snapshot name
  --prefix=<prefix>      Snapshot name prefix
  --to=<store url>       Destination store for copy
  --json                 Output as JSON
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage)
		os.Exit(0)
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(serverConfig.LogLevel, serverConfig.LogFormat)

	ctx := context.Background()
	store, err := serverConfig.BuildStore(ctx)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	svc, err := simplecms.New(
		simplecms.WithStore(store),
		simplecms.WithLogger(logger),
		simplecms.WithStrictCategories(serverConfig.StrictCategories),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	cli := &CLI{service: svc, store: store, out: os.Stdout}
	if err := cli.Run(ctx, command, os.Args[2:]); err != nil {
		if errors.Is(err, errUnknownCommand) {
			fmt.Printf("Unknown command: %s\n\n", command)
			fmt.Print(usage)
			os.Exit(1)
		}
		log.Fatalf("%s failed: %v", command, err)
	}
}

var errUnknownCommand = errors.New("unknown command")

// CLI runs admin commands against one service and its store.
type CLI struct {
	service simplecms.Service
	store   simplecms.SnapshotStore
	out     io.Writer
	// openStore opens the destination of copy; config based when nil
	openStore func(ctx context.Context, storeURL string) (simplecms.SnapshotStore, error)
}

type options struct {
	flags   map[string]string
	useJSON bool
}

func parseOptions(args []string) options {
	opts := options{flags: map[string]string{}}
	for _, arg := range args {
		if arg == "--json" {
			opts.useJSON = true
			continue
		}
		key, value := parseFlag(arg)
		if key != "" {
			opts.flags[key] = value
		}
	}
	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		if i := strings.IndexByte(arg, '='); i >= 0 {
			return arg[:i], arg[i+1:]
		}
		return arg, "true"
	}
	return "", ""
}

func (o options) kind() (simplecms.Kind, error) {
	raw := o.flags["kind"]
	if raw == "" {
		return simplecms.KindProducts, nil
	}
	return simplecms.ParseKind(raw)
}

func (o options) require(key string) (string, error) {
	v := o.flags[key]
	if v == "" {
		return "", fmt.Errorf("--%s is required", key)
	}
	return v, nil
}

// Run executes one command.
func (c *CLI) Run(ctx context.Context, command string, args []string) error {
	opts := parseOptions(args)
	switch command {
	case "categories":
		return c.categories(ctx, opts)
	case "members":
		return c.members(ctx, opts)
	case "assign":
		return c.assign(ctx, opts)
	case "orphans":
		return c.orphans(ctx, opts)
	case "related":
		return c.related(ctx, opts)
	case "snapshots":
		return c.snapshots(ctx, opts)
	case "dump":
		return c.dump(ctx, opts)
	case "copy":
		return c.copy(ctx, opts)
	}
	return errUnknownCommand
}

func (c *CLI) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

type categoryRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Members int    `json:"members"`
}

func (c *CLI) categories(ctx context.Context, opts options) error {
	kind, err := opts.kind()
	if err != nil {
		return err
	}

	var rows []categoryRow
	for page := 1; ; page++ {
		result, err := c.service.ListCategories(ctx, kind, simplecms.ListOptions{Page: page, PageSize: 100})
		if err != nil {
			return err
		}
		for _, cat := range result.Items {
			cl, err := c.service.OpenMembership(ctx, kind, cat.ID)
			if err != nil {
				return err
			}
			rows = append(rows, categoryRow{ID: cat.ID, Name: cat.Name, Slug: cat.Slug, Members: len(cl.IDs())})
		}
		if page*result.PageSize >= result.Total {
			break
		}
	}

	if opts.useJSON {
		if rows == nil {
			rows = []categoryRow{}
		}
		return c.printJSON(rows)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tSLUG\tMEMBERS\n")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", row.ID, truncate(row.Name, 30), truncate(row.Slug, 30), row.Members)
	}
	w.Flush()
	fmt.Fprintf(c.out, "\nTotal: %d\n", len(rows))
	return nil
}

func (c *CLI) members(ctx context.Context, opts options) error {
	kind, err := opts.kind()
	if err != nil {
		return err
	}
	categoryID, err := opts.require("category")
	if err != nil {
		return err
	}
	if _, err := c.service.GetCategory(ctx, kind, categoryID); err != nil {
		return err
	}
	cl, err := c.service.OpenMembership(ctx, kind, categoryID)
	if err != nil {
		return err
	}

	if opts.useJSON {
		return c.printJSON(map[string]any{"category_id": categoryID, "ids": cl.IDs()})
	}
	for _, id := range cl.IDs() {
		fmt.Fprintln(c.out, id)
	}
	return nil
}

func (c *CLI) assign(ctx context.Context, opts options) error {
	kind, err := opts.kind()
	if err != nil {
		return err
	}
	itemID, err := opts.require("item")
	if err != nil {
		return err
	}
	categoryID := opts.flags["category"]
	if err := c.service.AssignCategory(ctx, kind, itemID, categoryID); err != nil {
		return err
	}
	label, err := c.service.CategoryLabel(ctx, kind, categoryID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s -> %s\n", itemID, label)
	return nil
}

func (c *CLI) orphans(ctx context.Context, opts options) error {
	kind, err := opts.kind()
	if err != nil {
		return err
	}
	ids, err := c.service.Orphans(ctx, kind)
	if err != nil {
		return err
	}
	if opts.useJSON {
		return c.printJSON(map[string][]string{"ids": ids})
	}
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	fmt.Fprintf(c.out, "\nOrphans: %d\n", len(ids))
	return nil
}

func (c *CLI) related(ctx context.Context, opts options) error {
	owner, err := opts.require("owner")
	if err != nil {
		return err
	}
	id, err := opts.require("id")
	if err != nil {
		return err
	}
	sel, err := c.service.Related(ctx, owner, id)
	if err != nil {
		return err
	}
	if opts.useJSON {
		return c.printJSON(sel)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SECTION\tSTATE\tIDS\n")
	for _, t := range simplecms.AllSectionTypes {
		ids := sel.Items(t)
		if len(ids) == 0 && !sel.IsActive(t) {
			continue
		}
		state := "inactive"
		if sel.IsActive(t) {
			state = "active"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t, state, strings.Join(ids, ","))
	}
	return w.Flush()
}

func (c *CLI) snapshots(ctx context.Context, opts options) error {
	names, err := c.store.List(ctx, opts.flags["prefix"])
	if err != nil {
		return err
	}
	if opts.useJSON {
		return c.printJSON(map[string][]string{"names": names})
	}
	for _, name := range names {
		fmt.Fprintln(c.out, name)
	}
	return nil
}

func (c *CLI) dump(ctx context.Context, opts options) error {
	name, err := opts.require("name")
	if err != nil {
		return err
	}
	data, err := c.store.Get(ctx, name)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		// Not JSON; print as stored
		_, err := c.out.Write(append(data, '\n'))
		return err
	}
	return c.printJSON(v)
}

func (c *CLI) copy(ctx context.Context, opts options) error {
	to, err := opts.require("to")
	if err != nil {
		return err
	}
	open := c.openStore
	if open == nil {
		open = openStore
	}
	dst, err := open(ctx, to)
	if err != nil {
		return err
	}
	n, err := copySnapshots(ctx, c.store, dst, opts.flags["prefix"])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Copied %d snapshots\n", n)
	return nil
}

func openStore(ctx context.Context, storeURL string) (simplecms.SnapshotStore, error) {
	cfg, err := config.Load(config.WithEnv(""), config.WithStoreURL(storeURL))
	if err != nil {
		return nil, err
	}
	return cfg.BuildStore(ctx)
}

// copySnapshots writes every snapshot under prefix from src to dst as stored.
func copySnapshots(ctx context.Context, src, dst simplecms.SnapshotStore, prefix string) (int, error) {
	names, err := src.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}
	copied := 0
	for _, name := range names {
		data, err := src.Get(ctx, name)
		if errors.Is(err, simplecms.ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := dst.Put(ctx, name, data); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", name, err)
		}
		copied++
	}
	return copied, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
