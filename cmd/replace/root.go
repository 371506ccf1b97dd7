package replace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alanpinnt/wpmigrate/cmd/util"
	"github.com/alanpinnt/wpmigrate/lib/migrate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ReplaceCmd runs the two-pass search/replace pipeline
	ReplaceCmd = &cobra.Command{
		Use:   "replace",
		Short: "Replace a substring across all text columns of the database",
		Long: `Replace a substring across all text columns of the database.

Cells holding serialized values are decoded, rewritten and re-encoded with
corrected length prefixes; plain text cells get a direct substring replace.
The pipeline runs twice, once for the literal pair and once for the
slash-escaped variant. Configuration can be set via command line flags or
environment variables of the form WPMIGRATE_<flag> (e.g. WPMIGRATE_DSN=...).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add store connection flags
	util.SetupStoreFlags(ReplaceCmd)

	// add flags
	key := "from"
	ReplaceCmd.PersistentFlags().String(key, "", util.WrapString("The string to search for (e.g. https://old.com)"))

	key = "to"
	ReplaceCmd.PersistentFlags().String(key, "", util.WrapString("The replacement string (e.g. https://newsite.io)"))

	key = "mode"
	ReplaceCmd.PersistentFlags().String(key, "dry-run", util.WrapString("What to do with computed changes: apply, dry-run or export"))

	key = "export-file"
	ReplaceCmd.PersistentFlags().String(key, "-", util.WrapString("File to write update statements to in export mode ('-' for stdout)"))

	key = "tables"
	ReplaceCmd.PersistentFlags().String(key, "", util.WrapString("Comma-separated list of tables to restrict the run to (default: all tables)"))

	key = "table-prefix"
	ReplaceCmd.PersistentFlags().String(key, "", util.WrapString("Only process tables with this prefix (e.g. wp_)"))

	key = "workers"
	ReplaceCmd.PersistentFlags().Int(key, 1, util.WrapString("Number of tables to process in parallel"))

	key = "max-depth"
	ReplaceCmd.PersistentFlags().Int(key, 0, util.WrapString("Maximum nesting depth of serialized values before a cell falls back to plain text handling (0 = default)"))

	key = "log-level"
	ReplaceCmd.PersistentFlags().String(key, "info", util.WrapString("Log level (debug, info, warn, error)"))

	key = "metrics"
	ReplaceCmd.PersistentFlags().Bool(key, false, util.WrapString("Dump run metrics in prometheus text format to stderr after the run"))
}

// runConfig is the processed command configuration
type runConfig struct {
	cfg        migrate.Config
	exportFile string
	metrics    bool
}

var replaceCmdConfig runConfig

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	mode, err := migrate.ParseMode(viper.GetString("mode"))
	if err != nil {
		return err
	}

	level, err := migrate.ParseLogLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}

	var tables []string
	if t := strings.TrimSpace(viper.GetString("tables")); t != "" {
		for _, name := range strings.Split(t, ",") {
			tables = append(tables, strings.TrimSpace(name))
		}
	}

	replaceCmdConfig = runConfig{
		cfg: migrate.Config{
			From:        viper.GetString("from"),
			To:          viper.GetString("to"),
			Mode:        mode,
			Tables:      tables,
			TablePrefix: viper.GetString("table-prefix"),
			Workers:     viper.GetInt("workers"),
			MaxDepth:    viper.GetInt("max-depth"),
			Logger:      migrate.NewLogger("replace", level, os.Stderr),
		},
		exportFile: viper.GetString("export-file"),
		metrics:    viper.GetBool("metrics"),
	}

	if replaceCmdConfig.cfg.From == "" {
		return fmt.Errorf("--from must not be empty")
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) (err error) {
	cfg := replaceCmdConfig.cfg

	// open the export sink before touching the database
	if cfg.Mode == migrate.ModeExport {
		sink, closeSink, serr := openExportSink(replaceCmdConfig.exportFile)
		if serr != nil {
			return serr
		}
		// a failed close can mean a truncated export file
		defer func() {
			if cerr := closeSink(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		cfg.ExportSink = sink
	}

	st, prefix, err := util.GetStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// a prefix from wp-config.php only applies when none was given explicitly
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = prefix
	}

	result, err := migrate.Run(cmd.Context(), st, cfg)
	if result != nil {
		fmt.Println(result.String())
	}
	if err != nil {
		return err
	}

	if replaceCmdConfig.metrics {
		migrate.WriteMetrics(os.Stderr)
	}
	return nil
}

// openExportSink opens the export target ('-' selects stdout). The returned
// closer reports the close error so a truncated export never passes silently.
func openExportSink(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open export file: %w", err)
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close export file: %w", err)
		}
		return nil
	}, nil
}
