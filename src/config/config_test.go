package config

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindTheRighConfigFile(t *testing.T) {
	cfg := new(Config)
	cfg.UserPath = filepath.FromSlash("/some/path")

	found := cfg.UserConfigPath()
	expected := filepath.Join(cfg.UserPath, "config.json")

	if found != expected {
		t.Errorf("Expected %s but found %s", expected, found)
	}

	cfg.UserPath = ""
	found = cfg.UserConfigPath()

	if !filepath.IsAbs(found) {
		t.Errorf("User config path was not rooted: %s", found)
	}

	if len(found) < 1 {
		t.Errorf("User config path was empty")
	}
}

func TestMergingConfigs(t *testing.T) {
	cfg := new(Config)
	merged := new(Config)

	cfg.SSL = true

	cfg.merge(merged)

	if cfg.SSL != true {
		t.Errorf("Zero value from the merged has been copied over")
	}

	merged.Listen = ":http"

	cfg.merge(merged)

	if cfg.Listen != ":http" {
		t.Errorf("NonZero value has not been copied over")
	}

	cfg.SSL = false
	cfg.Listen = ":80"
	cfg.LogFile = "logfile"
	cfg.Gzip = true
	cfg.ReadTimeout = 10
	cfg.WriteTimeout = 10
	cfg.MaxHeadersSize = 100
	cfg.SqliteDatabase = "coverd.db"
	cfg.AlbumProvider = "musicbrainz"
	cfg.Authenticate = ConfigAuth{User: "bob", Password: "marley"}

	merged.Listen = ":8080"
	merged.SSL = true
	merged.SSLCertificate = ConfigCert{Crt: "crt", Key: "key"}
	merged.ArtistProvider = "fanart"

	cfg.merge(merged)

	if cfg.SSL != true {
		t.Errorf("SSL was false but it was expected to be true")
	}

	if cfg.SSLCertificate.Crt != "crt" || cfg.SSLCertificate.Key != "key" {
		t.Errorf("SSL Certificate was not as expected: %#v", cfg.SSLCertificate)
	}

	if cfg.Authenticate.User != "bob" || cfg.Authenticate.Password != "marley" {
		t.Errorf("Authenticate user and password were wrong: %#v", cfg.Authenticate)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Listen was %s", cfg.Listen)
	}

	if cfg.Gzip != true {
		t.Errorf("Gzip was %t", cfg.Gzip)
	}

	if cfg.ReadTimeout != 10 {
		t.Errorf("ReadTimeout was %d", cfg.ReadTimeout)
	}

	if cfg.WriteTimeout != 10 {
		t.Errorf("WriteTimeout was %d", cfg.WriteTimeout)
	}

	if cfg.MaxHeadersSize != 100 {
		t.Errorf("MaxHeadersSize was %d", cfg.MaxHeadersSize)
	}

	if cfg.SqliteDatabase != "coverd.db" {
		t.Errorf("SqliteDatabase was %s", cfg.SqliteDatabase)
	}

	if cfg.AlbumProvider != "musicbrainz" {
		t.Errorf("AlbumProvider was %s", cfg.AlbumProvider)
	}

	if cfg.ArtistProvider != "fanart" {
		t.Errorf("ArtistProvider was %s", cfg.ArtistProvider)
	}
}

// TestFindAndParse exercises the whole cycle. A first run with no user
// config in place must create one from the defaults. A second run with an
// user config present must merge it over the defaults.
func TestFindAndParse(t *testing.T) {
	defaultsFS := fstest.MapFS{
		DefaultConfigName: &fstest.MapFile{
			Data: []byte(`{
				"listen": ":9996",
				"gzip": true,
				"read_timeout": 15,
				"album_provider": "musicbrainz",
				"artist_provider": "fanart",
				"user_agent": "coverd"
			}`),
		},
	}

	userPath := t.TempDir()

	cfg := new(Config)
	cfg.UserPath = userPath
	if err := cfg.FindAndParse(defaultsFS); err != nil {
		t.Fatalf("parsing with no user config failed: %s", err)
	}

	if _, err := os.Stat(filepath.Join(userPath, ConfigName)); err != nil {
		t.Errorf("the default config was not copied over: %s", err)
	}

	if cfg.Listen != ":9996" || !cfg.Gzip || cfg.ReadTimeout != 15 {
		t.Errorf("defaults were not parsed: %#v", cfg)
	}

	userSupplied := []byte(`{"listen": ":8080", "artist_provider": "none"}`)
	err := os.WriteFile(filepath.Join(userPath, ConfigName), userSupplied, 0644)
	if err != nil {
		t.Fatalf("writing the user config failed: %s", err)
	}

	cfg = new(Config)
	cfg.UserPath = userPath
	if err := cfg.FindAndParse(defaultsFS); err != nil {
		t.Fatalf("parsing with an user config failed: %s", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("the user supplied listen address was not used: %s", cfg.Listen)
	}

	if cfg.ArtistProvider != "none" {
		t.Errorf("the user supplied provider was not used: %s", cfg.ArtistProvider)
	}

	if cfg.AlbumProvider != "musicbrainz" || !cfg.Gzip {
		t.Errorf("default values were lost during the merge: %#v", cfg)
	}
}
