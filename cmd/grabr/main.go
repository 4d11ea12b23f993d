// Command grabr captures element context bundles from a web page.
//
// Usage:
//
//	grabr -url https://app.example -pick "#save-btn"      # live page grab
//	grabr -html page.html -pick "#save-btn" -out stdout   # offline static grab
//	grabr -url https://app.example -mcp                   # serve MCP tools on stdio
//	grabr -config grabr.yaml -url https://app.example -pick ".card"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grabr-ai/grabr"
	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/htmldom"
	"github.com/grabr-ai/grabr/inspect"
	"github.com/grabr-ai/grabr/mcptool"
	"github.com/grabr-ai/grabr/prompt"
	"github.com/grabr-ai/grabr/roddom"
	"github.com/grabr-ai/grabr/selection"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var picks stringList
	configPath := flag.String("config", "", "path to grabr.yaml config file")
	pageURL := flag.String("url", "", "capture from a live page at this URL")
	htmlPath := flag.String("html", "", "capture from a static HTML file (no browser)")
	flag.Var(&picks, "pick", "CSS selector to capture (repeatable)")
	instruction := flag.String("instruction", "", "instruction attached to the session")
	out := flag.String("out", "", "delivery: clipboard | stdout (overrides config)")
	serveMCP := flag.Bool("mcp", false, "serve the capture tools over MCP stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *pageURL, *htmlPath, picks, *instruction, *out, *serveMCP); err != nil {
		logger.Error("grabr: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, pageURL, htmlPath string, picks []string, instruction, out string, serveMCP bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if out != "" {
		cfg.Delivery.Provider = out
	}

	var target mcptool.Target
	var inspector inspect.Inspector

	switch {
	case htmlPath != "":
		doc, err := parseHTMLFile(htmlPath)
		if err != nil {
			return err
		}
		target = doc

	case pageURL != "":
		mgr := roddom.NewManager(roddom.Config{
			RemoteURL:       cfg.Browser.Remote,
			Headful:         cfg.Browser.Headful,
			Stealth:         cfg.Browser.Stealth,
			NavigateTimeout: cfg.Browser.NavigateTimeout,
			Logger:          logger,
		})
		if err := mgr.Start(ctx); err != nil {
			return err
		}
		defer mgr.Close()

		page, err := mgr.OpenPage(ctx, pageURL)
		if err != nil {
			return err
		}
		target = page

		insp, err := roddom.NewInspector(page)
		if err != nil {
			logger.Warn("grabr: inspector injection failed, captures degrade to no-hook", "error", err)
		} else {
			inspector = insp
		}

	default:
		fmt.Fprintln(os.Stderr, "usage: grabr -url <url> | -html <file> [-pick <selector>]... [-mcp]")
		os.Exit(1)
	}

	client, err := grabr.New(grabr.Config{
		Document:  target,
		Inspector: inspector,
		Runtime:   cfg.runtime(),
		Logger:    logger,
		Progress:  progressLogger(logger),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	switch cfg.Delivery.Provider {
	case "clipboard":
	case "stdout":
		if err := client.RegisterAgentProvider(stdoutProvider{}); err != nil {
			return err
		}
		if err := client.SetActiveAgentProvider(stdoutProvider{}.ID()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown delivery provider %q (want clipboard or stdout)", cfg.Delivery.Provider)
	}

	if serveMCP {
		srv := mcp.NewServer(&mcp.Implementation{Name: "grabr", Version: "0.1.0"}, nil)
		mcptool.NewService(client, target, mcptool.WithServiceLogger(logger)).RegisterMCP(srv)
		logger.Info("grabr: serving MCP tools on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	if len(picks) == 0 {
		return fmt.Errorf("nothing to do: pass -pick at least once, or -mcp")
	}

	m, err := client.StartSelectionSession(instruction)
	if err != nil {
		return err
	}
	for _, sel := range picks {
		el, err := target.FindBySelector(sel)
		if err != nil {
			return err
		}
		m.Toggle(el)
	}

	session, err := client.FinalizeSelection(ctx)
	if err != nil {
		return err
	}
	logger.Info("grabr: session delivered",
		"session", session.ID, "elements", len(session.Contexts), "summary", session.Summary)
	return nil
}

func parseHTMLFile(path string) (*htmldom.Doc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return htmldom.Parse(f, "file://"+abs)
}

// stdoutProvider writes the rendered session to standard output.
type stdoutProvider struct{}

func (stdoutProvider) ID() string    { return "stdout" }
func (stdoutProvider) Label() string { return "Print to stdout" }

func (stdoutProvider) SendContext(_ context.Context, s *grab.Session) error {
	_, err := io.WriteString(os.Stdout, prompt.RenderSession(s))
	return err
}

// progressLogger surfaces machine progress as log events.
func progressLogger(logger *slog.Logger) selection.ProgressFunc {
	return func(ev selection.ProgressEvent) {
		if ev.Err != nil {
			logger.Error("grabr: selection failed",
				"state", ev.State, "completed", ev.Completed, "total", ev.Total, "error", ev.Err)
			return
		}
		logger.Debug("grabr: selection progress",
			"state", ev.State, "completed", ev.Completed, "total", ev.Total)
	}
}
