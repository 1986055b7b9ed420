package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thesavant42/webhist/internal/api"
	"github.com/thesavant42/webhist/internal/config"
	"github.com/thesavant42/webhist/internal/db"
	"github.com/thesavant42/webhist/internal/history"
	"github.com/thesavant42/webhist/internal/models"
	"github.com/thesavant42/webhist/internal/server"
	"github.com/thesavant42/webhist/internal/ui"
)

func main() {
	// Loads .env and WEBHIST_* variables; flags below override them
	cfg := config.Load()

	serveFlag := flag.Bool("serve", false, "Run the HTTP tool endpoint instead of a single investigation")
	addrFlag := flag.String("addr", cfg.Addr, "Listen address for -serve")
	dbPath := flag.String("db", cfg.DBPath, "Path to SQLite investigation log (empty disables logging)")
	historyFlag := flag.Bool("history", false, "Browse logged investigations (optionally for one domain)")
	domainsFlag := flag.Bool("domains", false, "List investigated domains")
	pruneFlag := flag.Duration("prune", 0, "Delete logged investigations older than this (e.g. 720h)")
	ctFlag := flag.Bool("ct", false, "Print the short certificate listing for the domain")
	plainFlag := flag.Bool("plain", false, "Plain text output: no colors, spinner or prompts")
	timeoutFlag := flag.Duration("timeout", cfg.FetchTimeout, "Per-source fetch timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: webhist [flags] <domain> [QUERY_TYPE]\n\nQuery types:")
		for _, q := range history.QueryTypes {
			fmt.Fprintf(flag.CommandLine.Output(), " %s", q)
		}
		fmt.Fprint(flag.CommandLine.Output(), "\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.FetchTimeout = *timeoutFlag
	logger := cfg.NewLogger(os.Stderr)
	interactive := !*plainFlag && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var database *db.DB
	if *dbPath != "" {
		var err error
		database, err = db.New(*dbPath)
		if err != nil {
			ui.PrintError(fmt.Sprintf("Failed to initialize database: %v", err))
			os.Exit(1)
		}
		defer database.Close()
	}

	if *historyFlag || *domainsFlag || *pruneFlag > 0 {
		if database == nil {
			ui.PrintError("the investigation log needs -db or WEBHIST_DB")
			os.Exit(1)
		}
		if err := runLogCommand(database, *historyFlag, *domainsFlag, *pruneFlag, interactive); err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		return
	}

	engine := newEngine(cfg, logger)

	if *serveFlag {
		// a nil *db.DB must not reach the handler as a non-nil store
		var h *server.ToolHandler
		if database != nil {
			h = server.NewToolHandler(engine, database, logger)
		} else {
			h = server.NewToolHandler(engine, nil, logger)
		}
		if err := server.Serve(ctx, *addrFlag, server.NewRouter(h, logger), logger); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	domain, queryType := flag.Arg(0), flag.Arg(1)
	if domain == "" {
		if !interactive {
			flag.Usage()
			os.Exit(2)
		}
		d, q, err := ui.PromptForInvestigation()
		if err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		domain, queryType = d, string(q)
	}

	if *ctFlag {
		var listing string
		run := func() error {
			listing = engine.CertificateListing(ctx, domain)
			return nil
		}
		if err := withSpinner(interactive, "Searching certificate logs for "+domain+"...", run); err != nil {
			ui.PrintError(err.Error())
			os.Exit(1)
		}
		ui.PrintReport(os.Stdout, listing, !interactive)
		return
	}

	var res history.Result
	run := func() error {
		res = engine.Run(ctx, domain, queryType)
		return nil
	}
	if err := withSpinner(interactive, "Investigating "+domain+"...", run); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	ui.PrintReport(os.Stdout, res.Report, !interactive)

	if !res.Valid {
		os.Exit(1)
	}
	if database != nil && (!interactive || ui.ConfirmRecord(res.Domain)) {
		id, err := database.InsertInvestigation(models.Investigation{
			Domain:           res.Domain,
			QueryType:        string(res.QueryType),
			Report:           res.Report,
			CertificateCount: res.CertificateCount,
			SnapshotCount:    res.SnapshotCount,
		})
		if err != nil {
			logger.Warn("failed to record investigation", "error", err)
		} else if interactive {
			ui.PrintSuccess(fmt.Sprintf("Saved as investigation #%d", id))
		}
	}
}

func newEngine(cfg *config.Config, logger *log.Logger) *history.Engine {
	opts := cfg.ClientOptions()
	crtsh := api.NewCrtshClient(cfg.CrtshURL, opts, logger)
	wayback := api.NewWaybackClient(cfg.WaybackURL, cfg.ArchiveLimit, opts, logger)
	return history.NewEngine(crtsh, wayback, logger, history.WithFetchTimeout(cfg.FetchTimeout))
}

func runLogCommand(database *db.DB, showHistory, showDomains bool, prune time.Duration, interactive bool) error {
	if prune > 0 {
		n, err := database.PruneBefore(time.Now().Add(-prune))
		if err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Pruned %d investigations older than %s", n, prune))
	}

	if showDomains {
		domains, err := database.GetInvestigatedDomains()
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderDomainSummaries(domains))
	}

	if showHistory {
		filter := models.InvestigationFilter{Domain: strings.ToLower(strings.TrimSpace(flag.Arg(0))), Limit: 200}
		invs, total, err := database.GetInvestigations(filter)
		if err != nil {
			return err
		}
		if interactive && len(invs) > 0 {
			return ui.RunHistoryBrowser(invs)
		}
		fmt.Println(ui.RenderInvestigationTable(invs, total))
	}
	return nil
}

// withSpinner runs action behind the blocking spinner when attached to a terminal
func withSpinner(interactive bool, title string, action func() error) error {
	if !interactive {
		return action()
	}
	return ui.RunWithSpinner(title, action)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
