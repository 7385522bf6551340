package ui

import (
	"fmt"
	"os"
	"strings"
)

// Color codes for terminal output
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Cyan = "\033[36m"

	BrightBlack   = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Theme defines the color scheme for different UI elements
type Theme struct {
	// Status indicators
	Success string
	Warning string
	Error   string
	Info    string

	// UI elements
	Header      string
	SubHeader   string
	Label       string
	Value       string
	Command     string
	Description string
	Separator   string
	Prompt      string

	// Sentinel APR values ("-" and "n/a")
	Muted string
}

// DefaultTheme returns the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,

		Header:      Bold + BrightCyan,
		SubHeader:   Bold + Cyan,
		Label:       Bold, // terminal default color for visibility on all backgrounds
		Value:       "",
		Command:     BrightGreen,
		Description: BrightBlack,
		Separator:   BrightBlack,
		Prompt:      Bold + BrightMagenta,

		Muted: Dim,
	}
}

// ColorConfig manages color output settings
type ColorConfig struct {
	Enabled      bool
	EmojiEnabled bool
	Theme        *Theme
}

// NewColorConfig creates a color configuration from the environment.
// Colors are off when NO_COLOR is set or TERM is dumb or empty.
func NewColorConfig() *ColorConfig {
	noColor := os.Getenv("NO_COLOR") != ""
	term := os.Getenv("TERM")
	return &ColorConfig{
		Enabled:      !noColor && term != "dumb" && term != "",
		EmojiEnabled: true,
		Theme:        DefaultTheme(),
	}
}

// NewColorConfigWith applies the --no-color and --no-emoji flags on top of
// the environment defaults.
func NewColorConfigWith(noColor, noEmoji bool) *ColorConfig {
	c := NewColorConfig()
	c.Enabled = c.Enabled && !noColor
	c.EmojiEnabled = c.EmojiEnabled && !noEmoji
	return c
}

// Apply applies a color to text if colors are enabled
func (c *ColorConfig) Apply(color, text string) string {
	if !c.Enabled || color == "" {
		return text
	}
	return color + text + Reset
}

func (c *ColorConfig) Success(text string) string     { return c.Apply(c.Theme.Success, text) }
func (c *ColorConfig) Warning(text string) string     { return c.Apply(c.Theme.Warning, text) }
func (c *ColorConfig) Error(text string) string       { return c.Apply(c.Theme.Error, text) }
func (c *ColorConfig) Info(text string) string        { return c.Apply(c.Theme.Info, text) }
func (c *ColorConfig) Header(text string) string      { return c.Apply(c.Theme.Header, text) }
func (c *ColorConfig) SubHeader(text string) string   { return c.Apply(c.Theme.SubHeader, text) }
func (c *ColorConfig) Label(text string) string       { return c.Apply(c.Theme.Label, text) }
func (c *ColorConfig) Value(text string) string       { return c.Apply(c.Theme.Value, text) }
func (c *ColorConfig) Command(text string) string     { return c.Apply(c.Theme.Command, text) }
func (c *ColorConfig) Description(text string) string { return c.Apply(c.Theme.Description, text) }

// APR colors a formatted APR. Sentinels are muted and negative values
// shown as warnings.
func (c *ColorConfig) APR(s string) string {
	switch {
	case s == "-" || s == "n/a":
		return c.Apply(c.Theme.Muted, s)
	case strings.HasPrefix(s, "-"):
		return c.Warning(s)
	}
	return c.Success(s)
}

// FormatCommandAligned formats a command and description with a fixed
// command column width.
func (c *ColorConfig) FormatCommandAligned(cmd, desc string, width int) string {
	pad := width - len(cmd)
	if pad < 1 {
		pad = 1
	}
	return fmt.Sprintf("  %s%s%s", c.Command(cmd), strings.Repeat(" ", pad), c.Description(desc))
}

// Separator returns a colored separator line
func (c *ColorConfig) Separator(width int) string {
	return c.Apply(c.Theme.Separator, strings.Repeat("─", width))
}

// StatusIcon returns a colored status icon (respects emoji settings)
func (c *ColorConfig) StatusIcon(status string) string {
	if !c.EmojiEnabled {
		switch strings.ToLower(status) {
		case "success", "ok", "active":
			return c.Success("[OK]")
		case "warning", "pending":
			return c.Warning("[WARN]")
		case "error", "failed", "rejected":
			return c.Error("[ERR]")
		case "info":
			return c.Info("[INFO]")
		}
		return c.Apply(c.Theme.Muted, "[ ]")
	}

	switch strings.ToLower(status) {
	case "success", "ok", "active":
		return c.Success("✓")
	case "warning", "pending":
		return c.Warning("⚠")
	case "error", "failed", "rejected":
		return c.Error("✗")
	case "info":
		return c.Info("ℹ")
	}
	return c.Apply(c.Theme.Muted, "○")
}
