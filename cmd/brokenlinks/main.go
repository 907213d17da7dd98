package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"brokenlinks/internal/config"
	"brokenlinks/internal/crawler"
	"brokenlinks/internal/logger"
	"brokenlinks/internal/report"
)

const exitBrokenLinks = 2

// CLI flags. Zero values leave the config file (or default) setting alone.
type CLI struct {
	Seed   string `arg:"" optional:"" help:"Start URL of the site to check. Defaults to crawl.seed from the config file."`
	Config string `help:"Path to a YAML configuration file." short:"c" type:"existingfile"`

	Workers    int           `help:"Number of concurrent workers." short:"w"`
	Timeout    time.Duration `help:"Per-request timeout."`
	RunTimeout time.Duration `help:"Deadline for the whole run; 0 means none."`
	MaxPages   int           `help:"Maximum number of pages to crawl; 0 means unlimited."`
	PathPrefix string        `help:"Only crawl pages whose path starts with this prefix."`
	Assets     bool          `help:"Also check img, script, link and iframe references."`

	IgnoreRobots    bool    `help:"Crawl pages disallowed by robots.txt."`
	FollowRedirects bool    `help:"Follow redirects instead of reporting 3xx statuses."`
	Retries         int     `help:"Retries for requests that got no response." default:"-1"`
	RPS             float64 `name:"rps" help:"Maximum requests per second; 0 means unlimited."`
	UserAgent       string  `help:"User-Agent header sent with every request."`

	Out  string `help:"Directory for the output files." short:"o"`
	JSON bool   `help:"Also write report.json."`
	XLSX bool   `name:"xlsx" help:"Also write report.xlsx."`

	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (text, json, logfmt)."`
	LogFile   string `help:"Write logs to this file instead of stderr."`

	Progress     bool `help:"Show a progress spinner on stderr." short:"p"`
	FailOnBroken bool `help:"Exit with status 2 when broken links are found."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("brokenlinks"),
		kong.Description("Crawl a website and report its broken links."),
		kong.UsageOnError(),
	)

	code, err := run(cli)
	kctx.FatalIfErrorf(err)
	os.Exit(code)
}

func run(cli CLI) (int, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return 1, err
	}

	logOut := io.Writer(os.Stderr)
	if cfg.Logging.File != "" {
		f, err := logger.OpenFile(cfg.Logging.File)
		if err != nil {
			return 1, err
		}
		defer f.Close()
		logOut = f
	}
	lg, err := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: logOut})
	if err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		progress func(string)
		spin     *spinner.Spinner
	)
	if cli.Progress {
		spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Prefix = "checking "
		spin.Start()
		progress = func(u string) {
			spin.Lock()
			spin.Suffix = " " + u
			spin.Unlock()
		}
	}

	rep, err := crawler.Crawl(ctx, cfg.CrawlerConfig(lg, progress))
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return 1, err
	}

	if err := writeOutputs(cfg.Output, rep, lg); err != nil {
		return 1, err
	}

	fmt.Fprintf(os.Stdout, "visited %d pages, found %d broken links and %d unhandled links in %s\n",
		rep.Stats.PagesVisited, rep.Stats.BadLinks, len(rep.Result.Unhandled), rep.Stats.Duration.Round(time.Millisecond))
	if rep.Stats.Truncated {
		fmt.Fprintln(os.Stdout, "run stopped before completion; results are partial")
	}

	if cli.FailOnBroken && rep.Stats.BadLinks > 0 {
		return exitBrokenLinks, nil
	}
	return 0, nil
}

func loadConfig(cli CLI) (*config.Config, error) {
	cfg := config.Default()
	if cli.Config != "" {
		loaded, err := config.Load(cli.Config)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	applyOverrides(&cfg, cli)
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyOverrides(cfg *config.Config, cli CLI) {
	if cli.Seed != "" {
		cfg.Crawl.Seed = cli.Seed
	}
	if cli.Workers > 0 {
		cfg.Crawl.Workers = cli.Workers
	}
	if cli.Timeout > 0 {
		cfg.Fetch.Timeout = config.DurationFrom(cli.Timeout)
	}
	if cli.RunTimeout > 0 {
		cfg.Crawl.RunTimeout = config.DurationFrom(cli.RunTimeout)
	}
	if cli.MaxPages > 0 {
		cfg.Crawl.MaxPages = cli.MaxPages
	}
	if cli.PathPrefix != "" {
		cfg.Crawl.PathPrefix = cli.PathPrefix
	}
	if cli.Assets {
		cfg.Crawl.CheckAssets = true
	}
	if cli.IgnoreRobots {
		cfg.Politeness.RespectRobots = false
	}
	if cli.FollowRedirects {
		cfg.Fetch.FollowRedirects = true
	}
	if cli.Retries >= 0 {
		cfg.Fetch.MaxRetries = cli.Retries
	}
	if cli.RPS > 0 {
		cfg.Politeness.RequestsPerSecond = cli.RPS
	}
	if cli.UserAgent != "" {
		cfg.Fetch.UserAgent = cli.UserAgent
	}
	if cli.Out != "" {
		cfg.Output.Dir = cli.Out
	}
	if cli.JSON {
		cfg.Output.JSON = true
	}
	if cli.XLSX {
		cfg.Output.Workbook = true
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
	if cli.LogFile != "" {
		cfg.Logging.File = cli.LogFile
	}
}

func writeOutputs(out config.OutputConfig, rep *crawler.Report, lg *log.Logger) error {
	paths, err := report.WriteAll(out.Dir, rep)
	if err != nil {
		return err
	}
	if out.JSON {
		path := filepath.Join(out.Dir, report.JSONFile)
		if err := report.WriteJSON(path, rep); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
		paths = append(paths, path)
	}
	if out.Workbook {
		path := filepath.Join(out.Dir, report.WorkbookFile)
		if err := report.WriteWorkbook(path, rep); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		paths = append(paths, path)
	}
	for _, p := range paths {
		lg.Info("wrote output", "path", p)
	}
	return nil
}
