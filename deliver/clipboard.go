package deliver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/atotto/clipboard"

	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/prompt"
)

// ClipboardID is the registry id of the reference clipboard provider.
const ClipboardID = "clipboard"

// Clipboard renders a session into the prompt protocol and writes it to
// the platform clipboard. When a fallback writer is configured, a failed
// clipboard write falls through to it; on total failure the returned error
// embeds every attempted method's reason.
type Clipboard struct {
	write    func(string) error
	fallback io.Writer
	logger   *slog.Logger
}

// ClipboardOption configures the clipboard provider.
type ClipboardOption func(*Clipboard)

// WithFallbackWriter adds a writer used when the platform clipboard is
// unavailable (e.g. stdout in a headless CLI).
func WithFallbackWriter(w io.Writer) ClipboardOption {
	return func(c *Clipboard) { c.fallback = w }
}

// WithClipboardLogger overrides the default slog logger.
func WithClipboardLogger(logger *slog.Logger) ClipboardOption {
	return func(c *Clipboard) { c.logger = logger }
}

// withWriteFunc swaps the platform clipboard call; tests use it to script
// failures without a display server.
func withWriteFunc(write func(string) error) ClipboardOption {
	return func(c *Clipboard) { c.write = write }
}

// NewClipboard creates the reference clipboard provider.
func NewClipboard(opts ...ClipboardOption) *Clipboard {
	c := &Clipboard{write: clipboard.WriteAll, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Clipboard) ID() string { return ClipboardID }
func (c *Clipboard) Label() string { return "Copy to clipboard" }

// SendContext implements Provider.
func (c *Clipboard) SendContext(_ context.Context, s *grab.Session) error {
	text := prompt.RenderSession(s)

	var attempts []error
	err := c.write(text)
	if err == nil {
		c.logger.Debug("deliver: session copied to clipboard",
			"session", s.ID, "bytes", len(text))
		return nil
	}
	attempts = append(attempts, fmt.Errorf("clipboard: %w", err))

	if c.fallback != nil {
		_, err := io.WriteString(c.fallback, text)
		if err == nil {
			c.logger.Debug("deliver: session written to fallback writer", "session", s.ID)
			return nil
		}
		attempts = append(attempts, fmt.Errorf("fallback writer: %w", err))
	}

	return fmt.Errorf("deliver: session %s delivery failed on every method: %w",
		s.ID, errors.Join(attempts...))
}
