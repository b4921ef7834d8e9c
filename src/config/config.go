// Package config is resposible for finding, parsing and merging the coverd
// user configuration with the default one.
//
// Linux/BSD configurations should be in $HOME/.coverd/config.json
// Windows configurations should be in %APPDATA%/coverd/config.json
package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/vankolev/coverd/src/helpers"
)

// ConfigName is the name of the user configuration file.
const ConfigName = "config.json"

// DefaultConfigName is the name of the default configuration file which is
// bundled with the binary.
const DefaultConfigName = "config.default.json"

// Config contains representation for everything in config.json.
type Config struct {
	Listen         string     `json:"listen"`
	SSL            bool       `json:"ssl"`
	SSLCertificate ConfigCert `json:"ssl_certificate"`
	Auth           bool       `json:"basic_authenticate"`
	Authenticate   ConfigAuth `json:"authentication"`
	UserPath       string     `json:"user_path"`
	LogFile        string     `json:"log_file"`
	SqliteDatabase string     `json:"sqlite_database"`
	HostDatabase   string     `json:"host_database"`
	Gzip           bool       `json:"gzip"`
	ReadTimeout    int        `json:"read_timeout"`
	WriteTimeout   int        `json:"write_timeout"`
	MaxHeadersSize int        `json:"max_header_bytes"`

	// Art fetching behaviour.
	AlbumProvider  string `json:"album_provider"`
	ArtistProvider string `json:"artist_provider"`
	WifiOnly       bool   `json:"download_on_wifi_only"`
	FanartAPIKey   string `json:"fanart_api_key"`
	LastFmAPIKey   string `json:"lastfm_api_key"`
	UserAgent      string `json:"user_agent"`

	// Remote request queue behaviour.
	RequestConcurrency int `json:"request_concurrency"`
	RequestDelayMs     int `json:"request_delay_ms"`
	RequestTimeoutMs   int `json:"request_timeout_ms"`
}

// ConfigCert represents a certificate and key pair used for TLS.
type ConfigCert struct {
	Crt string `json:"crt"`
	Key string `json:"key"`
}

// ConfigAuth are the credentials for the basic authenticate handler.
type ConfigAuth struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// FindAndParse actually finds the configuration file, parsing it and merging
// it on top of the default configuration. defaultConfig is the file system
// which contains the bundled config.default.json.
func (cfg *Config) FindAndParse(defaultConfig fs.FS) error {
	if !cfg.UserConfigExists() {
		if err := cfg.CopyDefaultOverUser(defaultConfig); err != nil {
			return err
		}
	}

	defaults, err := fs.ReadFile(defaultConfig, DefaultConfigName)
	if err != nil {
		return fmt.Errorf("reading the default configuration: %w", err)
	}
	if err := json.Unmarshal(defaults, cfg); err != nil {
		return fmt.Errorf("parsing the default configuration: %w", err)
	}

	usrCfg := new(Config)
	usrCfg.UserPath = cfg.UserPath

	if err := usrCfg.parse(cfg.UserConfigPath()); err != nil {
		return err
	}

	cfg.merge(usrCfg)

	return nil
}

// parse reads the json file pointed to by filename and populates the config's
// fields with it.
func (cfg *Config) parse(filename string) error {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(contents, cfg)
}

// merge merges another config on top of this one. Only non-zero values are
// merged.
func (cfg *Config) merge(merged *Config) {
	cfgVal := reflect.ValueOf(cfg).Elem()
	mergedVal := reflect.ValueOf(merged).Elem()

	for i := 0; i < mergedVal.NumField(); i++ {
		mergedField := mergedVal.Field(i)
		if !mergedField.IsValid() || mergedField.IsZero() {
			continue
		}

		cfgField := cfgVal.Field(i)
		if !cfgField.CanSet() {
			continue
		}

		cfgField.Set(mergedField)
	}
}

// UserConfigPath returns the full path to the place where the user's
// configuration file should be.
func (cfg *Config) UserConfigPath() string {
	if len(cfg.UserPath) > 0 {
		if filepath.IsAbs(cfg.UserPath) {
			return filepath.Join(cfg.UserPath, ConfigName)
		}
		log.Printf("User path %s was invalid as it was not rooted", cfg.UserPath)
	}

	path, err := helpers.ProjectUserPath()
	if err != nil {
		log.Println(err)
		return ""
	}
	return filepath.Join(path, ConfigName)
}

// UserConfigExists returns true if the user configuration is present and in
// order. Otherwise false.
func (cfg *Config) UserConfigExists() bool {
	st, err := os.Stat(cfg.UserConfigPath())
	if err != nil {
		return false
	}
	return !st.IsDir()
}

// CopyDefaultOverUser will create (or replace if neccessery) the user
// configuration using the default config file bundled with the binary.
func (cfg *Config) CopyDefaultOverUser(defaultConfig fs.FS) error {
	defaults, err := fs.ReadFile(defaultConfig, DefaultConfigName)
	if err != nil {
		return fmt.Errorf("reading the default configuration: %w", err)
	}

	userConfig := cfg.UserConfigPath()
	if err := os.MkdirAll(filepath.Dir(userConfig), 0755); err != nil {
		return err
	}

	return os.WriteFile(userConfig, defaults, 0644)
}
