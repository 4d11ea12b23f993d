// Package grabr is the public client for element-context capture: point
// it at a document (live page or parsed HTML), select elements, and it
// produces versioned, deterministically rendered context bundles handed
// to a pluggable delivery provider.
package grabr

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/grabr-ai/grabr/deliver"
	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/inspect"
	"github.com/grabr-ai/grabr/selection"
)

// Config wires a Client to its document and capabilities.
type Config struct {
	// Document is the page under inspection. Required.
	Document dom.Document

	// Inspector is the component-tree introspection capability. Optional;
	// nil degrades every capture to health "no-hook".
	Inspector inspect.Inspector

	// Runtime is the engine configuration. The zero value means
	// DefaultRuntimeConfig; a partially set config is validated eagerly.
	Runtime grab.RuntimeConfig

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Progress receives selection-machine progress events. Optional.
	Progress selection.ProgressFunc
}

// Option configures a Client beyond the base Config.
type Option func(*Client)

// WithProvider registers an additional delivery provider at construction.
func WithProvider(p deliver.Provider) Option {
	return func(c *Client) { c.providers[p.ID()] = p }
}

// WithActiveProvider selects the active provider by id. New fails when no
// provider with that id is registered.
func WithActiveProvider(id string) Option {
	return func(c *Client) { c.active = id }
}

// Client owns the capture engine, the selection machine and the delivery
// provider registry. Safe for concurrent use.
type Client struct {
	engine  *grab.Engine
	machine *selection.Machine
	logger  *slog.Logger

	mu        sync.Mutex
	providers map[string]deliver.Provider
	active    string
}

// New builds a Client. Configuration errors surface here, synchronously,
// before any document interaction. The clipboard provider is registered
// and active by default.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Document == nil {
		return nil, fmt.Errorf("grabr: config requires a document")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := grab.NewEngine(cfg.Document, cfg.Inspector, cfg.Runtime, grab.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	c := &Client{
		engine:    engine,
		logger:    logger,
		providers: map[string]deliver.Provider{},
	}
	clip := deliver.NewClipboard(deliver.WithClipboardLogger(logger))
	c.providers[clip.ID()] = clip
	c.active = clip.ID()

	machineOpts := []selection.Option{selection.WithLogger(logger)}
	if cfg.Progress != nil {
		machineOpts = append(machineOpts, selection.WithProgress(cfg.Progress))
	}
	c.machine = selection.NewMachine(cfg.Document, engine, machineOpts...)

	for _, o := range opts {
		o(c)
	}
	if _, ok := c.providers[c.active]; !ok {
		return nil, fmt.Errorf("grabr: active provider %q is not registered", c.active)
	}
	return c, nil
}

// GetContext captures a single element without the interactive machinery.
func (c *Client) GetContext(ctx context.Context, el dom.Element) (*grab.ElementContext, error) {
	return c.engine.GetContext(ctx, el)
}

// StartSelectionSession begins an interactive selection pass and returns
// the machine driving it. Re-entrant while selecting.
func (c *Client) StartSelectionSession(instruction string) (*selection.Machine, error) {
	if err := c.machine.Begin(instruction); err != nil {
		return nil, err
	}
	return c.machine, nil
}

// FinalizeSelection captures the current selection and delivers the
// session through the active provider.
func (c *Client) FinalizeSelection(ctx context.Context) (*grab.Session, error) {
	return c.machine.Finalize(ctx, c.activeProvider())
}

// CurrentSession returns the most recently finalized session, or nil.
func (c *Client) CurrentSession() *grab.Session {
	return c.machine.Session()
}

// RegisterAgentProvider adds a delivery provider. Provider ids are unique.
func (c *Client) RegisterAgentProvider(p deliver.Provider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.providers[p.ID()]; dup {
		return fmt.Errorf("grabr: provider %q already registered", p.ID())
	}
	c.providers[p.ID()] = p
	c.logger.Debug("grabr: provider registered", "provider", p.ID(), "label", p.Label())
	return nil
}

// SetActiveAgentProvider selects which provider receives finalized
// sessions.
func (c *Client) SetActiveAgentProvider(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.providers[id]; !ok {
		return fmt.Errorf("grabr: unknown provider %q", id)
	}
	c.active = id
	return nil
}

// Providers lists the registered providers sorted by id.
func (c *Client) Providers() []deliver.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]deliver.Provider, 0, len(c.providers))
	for _, p := range c.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Close cancels any pending selection. The document and inspector are
// owned by the caller and stay open.
func (c *Client) Close() error {
	if err := c.machine.Cancel(); err != nil {
		c.logger.Debug("grabr: close with selection in flight", "error", err)
	}
	return nil
}

func (c *Client) activeProvider() deliver.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.providers[c.active]
}
