package migrate

import (
	"fmt"
	"io"
	"strings"

	"github.com/alanpinnt/wpmigrate/lib/serialized"
)

// --------------------------------------------------------------------------
// Mode
// --------------------------------------------------------------------------

// Mode selects what happens with computed change sets.
type Mode uint8

const (
	// ModeDryRun only tallies counts; no statement is built or executed.
	ModeDryRun Mode = iota
	// ModeApply issues one parameterized update per changed row.
	ModeApply
	// ModeExport renders update statements into the export sink.
	ModeExport
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDryRun:
		return "dry-run"
	case ModeApply:
		return "apply"
	case ModeExport:
		return "export"
	default:
		return "unknown"
	}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "dry-run", "dryrun":
		return ModeDryRun, nil
	case "apply":
		return ModeApply, nil
	case "export":
		return ModeExport, nil
	default:
		return ModeDryRun, fmt.Errorf("invalid mode: %s. must be one of apply, dry-run, export", s)
	}
}

// --------------------------------------------------------------------------
// Config
// --------------------------------------------------------------------------

// Config holds all parameters of one replacement run. Everything is passed
// explicitly; the driver keeps no ambient state between runs.
type Config struct {
	// From is the literal search string, To its replacement.
	From string
	To   string

	// Mode selects apply, dry-run or export behavior.
	Mode Mode

	// ExportSink receives rendered update statements in ModeExport.
	ExportSink io.Writer

	// Tables optionally restricts the run to the named tables.
	Tables []string

	// TablePrefix optionally restricts the run to tables with this prefix
	// (the usual site installations share one schema with prefixed tables).
	TablePrefix string

	// Workers is the number of tables processed in parallel. Values below 1
	// select sequential processing.
	Workers int

	// MaxDepth bounds decoder nesting, see serialized.DecodeOptions.
	MaxDepth int

	// Logger receives progress and per-row diagnostics. Nil selects a
	// default stderr logger.
	Logger *Logger
}

// normalized fills defaults and validates the configuration.
func (c Config) normalized() (Config, error) {
	if c.From == "" {
		return c, fmt.Errorf("search string must not be empty")
	}
	if c.Mode == ModeApply && c.From == c.To {
		return c, fmt.Errorf("apply mode with identical search and replace strings would rewrite nothing")
	}
	if c.Mode == ModeExport && c.ExportSink == nil {
		return c, fmt.Errorf("export mode requires an export sink")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = serialized.DefaultMaxDepth
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger("migrate")
	}
	return c, nil
}

// wantTable applies the allow-list and prefix filters.
func (c *Config) wantTable(name string) bool {
	if c.TablePrefix != "" && !strings.HasPrefix(name, c.TablePrefix) {
		return false
	}
	if len(c.Tables) == 0 {
		return true
	}
	for _, t := range c.Tables {
		if t == name {
			return true
		}
	}
	return false
}
