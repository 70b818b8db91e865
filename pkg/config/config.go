package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// DefaultLedgerCollection is the Firestore collection generations are recorded in.
const DefaultLedgerCollection = "cv_generations"

// Config represents the application configuration.
type Config struct {
	DefaultTemplate  string        `json:"default_template"`
	TemplateFallback bool          `json:"template_fallback"`
	StylesPath       string        `json:"styles_path,omitempty"`
	OutputDir        string        `json:"output_dir"`
	Server           ServerConfig  `json:"server"`
	Records          RecordsConfig `json:"records"`
	Storage          StorageConfig `json:"storage"`
	Ledger           LedgerConfig  `json:"ledger"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// RecordsConfig says where profile records come from.
// DatabaseURL takes precedence over Dir when both are set.
type RecordsConfig struct {
	Dir         string `json:"dir,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
}

// StorageConfig says where stored documents go.
type StorageConfig struct {
	Backend string `json:"backend"`
	Dir     string `json:"dir,omitempty"`
	Bucket  string `json:"bucket,omitempty"`
}

// LedgerConfig enables the Firestore generation ledger when ProjectID is set.
type LedgerConfig struct {
	ProjectID  string `json:"project_id,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// DefaultPath returns $HOME/.academic-cv/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".academic-cv", "config.json")
	return path, err
}

// Load reads configuration from file with environment variable overrides.
// A missing file at the default location is not an error; a missing explicit path is.
func Load(configPath string) (cfg Config, err error) {
	// Pick up a .env in the working directory, if there is one
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		err = json.Unmarshal(data, &cfg)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	case os.IsNotExist(err) && configPath == "":
		err = nil
	case os.IsNotExist(err):
		err = errors.Errorf("config file not found: %s (run 'academic-cv init' to create)", path)
		return cfg, err
	default:
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	cfg.applyEnv()

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("ACADEMIC_CV_ADDR", c.Server.Addr)
	c.Records.DatabaseURL = getEnv("DATABASE_URL", c.Records.DatabaseURL)
	c.Ledger.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", c.Ledger.ProjectID)

	if bucket := os.Getenv("ACADEMIC_CV_GCS_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
		c.Storage.Backend = BackendGCS
	}
}

func getEnv(key, def string) (value string) {
	value = os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() (err error) {
	if c.DefaultTemplate == "" {
		c.DefaultTemplate = "institutional"
	}

	if c.OutputDir == "" {
		c.OutputDir = "."
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.StylesPath != "" {
		_, err = os.Stat(c.StylesPath)
		if os.IsNotExist(err) {
			err = errors.Errorf("styles file not found: %s", c.StylesPath)
			return err
		}
		if err != nil {
			err = errors.Wrapf(err, "failed to stat styles file: %s", c.StylesPath)
			return err
		}
	}

	switch c.Storage.Backend {
	case "", BackendLocal:
		c.Storage.Backend = BackendLocal
		if c.Storage.Dir == "" {
			c.Storage.Dir = filepath.Join(c.OutputDir, "generated")
		}
	case BackendGCS:
		if c.Storage.Bucket == "" {
			err = errors.New("storage.bucket is required for the gcs backend (set in config or ACADEMIC_CV_GCS_BUCKET env var)")
			return err
		}
	default:
		err = errors.Errorf("unknown storage.backend %q (want %s or %s)", c.Storage.Backend, BackendLocal, BackendGCS)
		return err
	}

	if c.Ledger.Collection == "" {
		c.Ledger.Collection = DefaultLedgerCollection
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	// Check if file already exists
	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	defaultConfig := Config{
		DefaultTemplate: "institutional",
		OutputDir:       ".",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Records: RecordsConfig{
			Dir: filepath.Join(dir, "profiles"),
		},
		Storage: StorageConfig{
			Backend: BackendLocal,
			Dir:     filepath.Join(dir, "generated"),
		},
		Ledger: LedgerConfig{
			Collection: DefaultLedgerCollection,
		},
	}

	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
