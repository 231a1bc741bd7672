// Command pricetracker is the command-line front end: track single URLs,
// refresh tracked products, run bulk jobs, and export CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kkandukuri/pricetracker/internal/app"
	"github.com/kkandukuri/pricetracker/internal/config"
	"github.com/kkandukuri/pricetracker/internal/export"
	"github.com/kkandukuri/pricetracker/internal/logging"
	"github.com/kkandukuri/pricetracker/internal/targets"
)

const usage = `Usage: pricetracker <command> [arguments]

Commands:
  add <url>        track a product page
  update           re-extract every tracked product
  list             list tracked products
  show <id>        show one product
  history <id>     show the price history of one product
  bulk <file>      run a bulk job over a .txt or .csv target list
  export           export products (or price history) as CSV
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := run(ctx, application, cfg, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.Application, cfg config.Config, command string, args []string) error {
	switch command {
	case "add":
		return cmdAdd(ctx, a, args)
	case "update":
		return cmdUpdate(ctx, a)
	case "list":
		return cmdList(ctx, a)
	case "show":
		return cmdShow(ctx, a, args)
	case "history":
		return cmdHistory(ctx, a, args)
	case "bulk":
		return cmdBulk(ctx, a, cfg, args)
	case "export":
		return cmdExport(ctx, a, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdAdd(ctx context.Context, a *app.Application, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("add expects exactly one URL")
	}

	p, err := a.Tracker().Track(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("#%d  %s\n  %.2f %s  %s\n", p.ID, p.Name, p.CurrentPrice, p.Currency, p.URL)
	return nil
}

func cmdUpdate(ctx context.Context, a *app.Application) error {
	result, err := a.Tracker().UpdateAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("updated %d/%d products, %d failed\n", result.Updated, result.Total, result.Failed)
	return nil
}

func cmdList(ctx context.Context, a *app.Application) error {
	products, err := a.Repo().List(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Printf("#%-5d %-10.2f %-4s %s\n", p.ID, p.CurrentPrice, p.Currency, p.Name)
	}
	fmt.Printf("%d products tracked\n", len(products))
	return nil
}

func cmdShow(ctx context.Context, a *app.Application, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	p, err := a.Repo().GetByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("#%d  %s\n", p.ID, p.Name)
	fmt.Printf("  URL:      %s\n", p.URL)
	fmt.Printf("  Price:    %.2f %s\n", p.CurrentPrice, p.Currency)
	fmt.Printf("  Site:     %s\n", p.SiteName)
	if p.UPC != "" {
		fmt.Printf("  UPC:      %s\n", p.UPC)
	}
	for _, img := range p.ImageURLs {
		fmt.Printf("  Image:    %s\n", img)
	}
	if p.Description != "" {
		fmt.Printf("  %s\n", export.ShortDescription(p.Description))
	}
	return nil
}

func cmdHistory(ctx context.Context, a *app.Application, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	deltas, err := a.Ledger().Deltas(ctx, id, 0)
	if err != nil {
		return err
	}
	for _, d := range deltas {
		change := ""
		if !d.First {
			change = fmt.Sprintf("%+.2f", d.Change)
		}
		fmt.Printf("%s  %10.2f %-4s %s\n",
			d.Observation.RecordedAt.Format("2006-01-02 15:04"),
			d.Observation.Price, d.Observation.Currency, change)
	}
	return nil
}

func cmdBulk(ctx context.Context, a *app.Application, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("bulk", flag.ContinueOnError)
	delay := fs.Float64("delay", cfg.Scraper.DefaultDelaySeconds, "seconds between requests")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("bulk expects exactly one target file")
	}

	list, err := targets.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no targets in %s", fs.Arg(0))
	}

	store, orch := a.Jobs()
	job, err := store.Create(targets.URLs(list), *delay)
	if err != nil {
		return err
	}
	fmt.Printf("job %s: %d targets\n", job.ID, job.Total)

	// The CLI runs the job synchronously so the exit code reflects it.
	if err := orch.Run(ctx, job.ID); err != nil {
		return err
	}

	job, err = store.Get(job.ID)
	if err != nil {
		return err
	}
	fmt.Printf("job %s: %s, %d ok, %d failed\n", job.ID, job.Status, job.Success, job.Failed)
	for _, f := range job.Failures {
		fmt.Printf("  failed %s: %s\n", f.URL, f.Error)
	}
	if job.ArtifactFile != "" {
		fmt.Printf("artifact: %s\n", orch.ArtifactPath(job))
	}
	return nil
}

func cmdExport(ctx context.Context, a *app.Application, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("o", "products.csv", "output file")
	images := fs.Bool("images", false, "include image URLs")
	metadata := fs.Bool("metadata", false, "include currency, site, and timestamps")
	history := fs.Bool("price-history", false, "export price history instead of products")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, err := a.Repo().List(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if *history {
		err = export.WritePriceHistory(ctx, f, products, a.Ledger())
	} else {
		err = export.WriteProducts(f, products, export.Options{
			IncludeImages:   *images,
			IncludeMetadata: *metadata,
		})
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported %d products to %s\n", len(products), *output)
	return nil
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one product id")
	}
	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}
