// Command project prints one matchup projection from the configured feeds.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/okian/courtline/internal/adapters/repository"
	app "github.com/okian/courtline/internal/app"
	"github.com/okian/courtline/internal/config"
	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/internal/report"
	"github.com/okian/courtline/pkg/logger"
)

type options struct {
	Config  string            `short:"c" long:"config" description:"YAML config file"`
	Away    string            `short:"a" long:"away" description:"Away team" required:"true"`
	Home    string            `short:"H" long:"home" description:"Home team" required:"true"`
	Spread  *float64          `short:"s" long:"spread" description:"Book spread for the home team, negative when home is favored"`
	Total   *float64          `short:"t" long:"total" description:"Book total"`
	Samples int               `short:"n" long:"samples" description:"Monte Carlo trials; 0 uses the configured count"`
	NoSim   bool              `long:"no-sim" description:"Skip the simulation"`
	Feeds   map[string]string `long:"feed" description:"Replace a feed source, name=path-or-url" key-value-delimiter:"="`
	Save    bool              `long:"save" description:"Append the projection to the prediction store"`
	Export  string            `long:"export" description:"Write every saved prediction as CSV to this path"`
	JSON    bool              `long:"json" description:"Print the result as JSON"`
	Verbose bool              `short:"v" long:"verbose" description:"Log feed loading"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithOutput(stderr)); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	_ = logger.SetLevelString(level)

	if err := project(ctx, opts, stdout); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func project(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(ctx, config.WithFile(opts.Config))
	if err != nil {
		return err
	}
	if err := overrideFeeds(cfg, opts.Feeds); err != nil {
		return err
	}
	cfg.RefreshSchedule = ""
	if !opts.Save && opts.Export == "" {
		cfg.StorePath = repository.MemoryPath
	}

	svc := app.New(cfg, app.WithLogger(logger.Named("project")))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	req := model.MatchupRequest{
		Away:       opts.Away,
		Home:       opts.Home,
		SpreadHome: opts.Spread,
		Total:      opts.Total,
		Samples:    opts.Samples,
	}
	if opts.NoSim {
		off := false
		req.Simulate = &off
	}

	res, err := svc.Project(ctx, req)
	if err != nil {
		return err
	}
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if err := report.Write(out, res); err != nil {
		return err
	}

	if opts.Save {
		p, err := svc.Save(ctx, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved prediction %s\n", p.ID)
	}
	if opts.Export != "" {
		return exportTo(ctx, svc, opts.Export)
	}
	return nil
}

// overrideFeeds points named feeds at new sources, leaving their layout intact.
func overrideFeeds(cfg *config.Config, feeds map[string]string) error {
	for name, src := range feeds {
		found := false
		for i := range cfg.Feeds {
			if strings.EqualFold(cfg.Feeds[i].Name, name) {
				cfg.Feeds[i].URL = src
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown feed %q", name)
		}
	}
	return nil
}

func exportTo(ctx context.Context, svc *app.Service, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return svc.ExportPredictions(ctx, f)
}
