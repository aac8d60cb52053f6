package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kinet-dev/kinet/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "kinet.json"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultResumeWindow is the default session resume window.
	DefaultResumeWindow = "30s"
)

// Config represents the complete kinet.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Port is the server port.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Static contains static file serving configuration.
	Static StaticConfig `json:"static,omitempty"`

	// Assets contains S3 publishing configuration.
	Assets AssetsConfig `json:"assets,omitempty"`

	// Session contains session configuration.
	Session SessionConfig `json:"session,omitempty"`

	// Client is the path to a client bundle that overrides the embedded
	// one. Empty means the embedded bundle.
	Client string `json:"client,omitempty"`

	// Metrics enables the /metrics endpoint.
	Metrics bool `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string `json:"dir,omitempty"`

	// Prefix is the URL prefix for static files (default: "/static").
	Prefix string `json:"prefix,omitempty"`
}

// AssetsConfig contains S3 publishing configuration for kinet publish.
type AssetsConfig struct {
	// Bucket is the S3 bucket assets are published to.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the key prefix inside the bucket.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty"`
}

// SessionConfig contains session configuration.
type SessionConfig struct {
	// ResumeWindow is how long a detached session stays resumable
	// (e.g., "30s").
	ResumeWindow string `json:"resumeWindow,omitempty"`

	// MaxSessions caps concurrently live sessions. Zero means the
	// server default.
	MaxSessions int `json:"maxSessions,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Port: DefaultPort,
		Host: DefaultHost,
		Static: StaticConfig{
			Dir:    "public",
			Prefix: "/static",
		},
		Session: SessionConfig{
			ResumeWindow: DefaultResumeWindow,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for kinet.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("K061").
				WithDetail("No kinet.json found in " + filepath.Dir(path)).
				WithSuggestion("Create kinet.json or run the command from the project root")
		}
		return nil, errors.New("K060").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		ke := errors.New("K060").
			Wrap(err).
			WithSuggestion("Check that kinet.json is valid JSON")
		if off, ok := decodeOffset(err); ok {
			ke = ke.WithOffset(path, data, off)
		}
		return nil, ke
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// decodeOffset extracts the byte offset from a JSON decode error.
func decodeOffset(err error) (int64, bool) {
	switch e := err.(type) {
	case *json.SyntaxError:
		return e.Offset, true
	case *json.UnmarshalTypeError:
		return e.Offset, true
	}
	return 0, false
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("K060").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("K060").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Static.Dir == "" {
		c.Static.Dir = "public"
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = "/static"
	}
	if c.Session.ResumeWindow == "" {
		c.Session.ResumeWindow = DefaultResumeWindow
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("K062").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Port))
	}
	if c.Session.ResumeWindow != "" {
		if _, err := time.ParseDuration(c.Session.ResumeWindow); err != nil {
			return errors.New("K060").
				WithDetail("session.resumeWindow is not a duration: " + c.Session.ResumeWindow).
				WithSuggestion(`Use a Go duration string such as "30s" or "2m"`)
		}
	}
	return nil
}

// Address returns the host:port address string for the server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the full URL for the server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// ResumeWindow returns the parsed session resume window. Unparsable
// values fall back to the default; Validate reports them.
func (c *Config) ResumeWindow() time.Duration {
	d, err := time.ParseDuration(c.Session.ResumeWindow)
	if err != nil {
		d, _ = time.ParseDuration(DefaultResumeWindow)
	}
	return d
}

// StaticPath returns the absolute path to the static files directory.
func (c *Config) StaticPath() string {
	dir := c.Static.Dir
	if dir == "" {
		dir = "public"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Dir(), dir)
}

// StaticPrefix returns the URL prefix for static files.
func (c *Config) StaticPrefix() string {
	if c.Static.Prefix == "" {
		return "/static"
	}
	return c.Static.Prefix
}

// ClientPath returns the absolute path to the client bundle override,
// or "" when the embedded bundle is used.
func (c *Config) ClientPath() string {
	if c.Client == "" {
		return ""
	}
	if filepath.IsAbs(c.Client) {
		return c.Client
	}
	return filepath.Join(c.Dir(), c.Client)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing kinet.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("K061").
				WithDetail("No kinet.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create kinet.json in the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
