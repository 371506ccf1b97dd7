// Package wpconfig extracts database credentials from a site's
// wp-config.php. The scanner is deliberately tolerant: it recognizes the
// standard define() calls and the $table_prefix assignment regardless of
// surrounding whitespace or quote style, and ignores everything else in the
// file. It is only a convenience fallback; explicit flags and environment
// variables always win.
package wpconfig

import (
	"fmt"
	"os"
	"regexp"
)

// Credentials are the connection parameters found in a wp-config.php.
type Credentials struct {
	Name        string // DB_NAME
	User        string // DB_USER
	Password    string // DB_PASSWORD
	Host        string // DB_HOST, may include a :port suffix
	Charset     string // DB_CHARSET, may be empty
	TablePrefix string // $table_prefix, may be empty
}

var (
	defineRe = regexp.MustCompile(`(?m)^\s*define\s*\(\s*['"]([A-Z_]+)['"]\s*,\s*['"]((?:[^'"\\]|\\.)*)['"]\s*\)\s*;`)
	prefixRe = regexp.MustCompile(`(?m)^\s*\$table_prefix\s*=\s*['"]([^'"]*)['"]\s*;`)
	escapeRe = regexp.MustCompile(`\\(.)`)
)

// Load reads and parses a wp-config.php file.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wp-config: %w", err)
	}
	return Parse(data)
}

// Parse extracts credentials from wp-config.php source text.
func Parse(data []byte) (*Credentials, error) {
	c := &Credentials{}
	for _, m := range defineRe.FindAllSubmatch(data, -1) {
		key := string(m[1])
		val := escapeRe.ReplaceAllString(string(m[2]), "$1")
		switch key {
		case "DB_NAME":
			c.Name = val
		case "DB_USER":
			c.User = val
		case "DB_PASSWORD":
			c.Password = val
		case "DB_HOST":
			c.Host = val
		case "DB_CHARSET":
			c.Charset = val
		}
	}
	if m := prefixRe.FindSubmatch(data); m != nil {
		c.TablePrefix = string(m[1])
	}

	if c.Name == "" || c.User == "" {
		return nil, fmt.Errorf("wp-config: DB_NAME or DB_USER not found")
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	return c, nil
}

// DSN renders the credentials as a go-sql-driver/mysql data source name.
func (c *Credentials) DSN() string {
	host := c.Host
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", c.User, c.Password, withDefaultPort(host), c.Name)
	if c.Charset != "" {
		dsn += "?charset=" + c.Charset
	}
	return dsn
}

// withDefaultPort appends the default mysql port when the host has none.
func withDefaultPort(host string) string {
	for i := 0; i < len(host); i++ {
		if host[i] == ':' {
			return host
		}
	}
	return host + ":3306"
}
