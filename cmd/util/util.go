package util

import (
	"fmt"
	"strings"

	"github.com/alanpinnt/wpmigrate/lib/store"
	"github.com/alanpinnt/wpmigrate/lib/store/mysqlstore"
	"github.com/alanpinnt/wpmigrate/lib/store/sqlitestore"
	"github.com/alanpinnt/wpmigrate/lib/wpconfig"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("wpmigrate")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupStoreFlags adds the store connection flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "driver"
	cmd.PersistentFlags().String(key, "mysql", WrapString("Database driver to use (mysql, sqlite)"))

	key = "dsn"
	cmd.PersistentFlags().String(key, "", WrapString("Data source name. For mysql: user:pass@tcp(host:port)/dbname, for sqlite: a file path"))

	key = "wp-config"
	cmd.PersistentFlags().String(key, "", WrapString("Path to a wp-config.php to read mysql credentials (and the table prefix) from when no DSN is given"))
}

// GetStore creates a store based on configuration. The second return value
// is a table prefix picked up from wp-config.php, if one was used.
func GetStore() (store.IStore, string, error) {
	driver := viper.GetString("driver")
	dsn := viper.GetString("dsn")
	prefix := ""

	if dsn == "" && viper.GetString("wp-config") != "" {
		creds, err := wpconfig.Load(viper.GetString("wp-config"))
		if err != nil {
			return nil, "", err
		}
		dsn = creds.DSN()
		prefix = creds.TablePrefix
		driver = "mysql"
	}
	if dsn == "" {
		return nil, "", fmt.Errorf("no data source: set --dsn or --wp-config")
	}

	switch driver {
	case "mysql":
		st, err := mysqlstore.New(dsn)
		return st, prefix, err
	case "sqlite":
		st, err := sqlitestore.New(dsn)
		return st, prefix, err
	default:
		return nil, "", fmt.Errorf("invalid driver %s", driver)
	}
}
