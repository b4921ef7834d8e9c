// The Main function of coverd. It should set everything up: the remote
// request queue, the providers, the artwork cache, the resolution engine
// and a webserver in front of them.
//
// At the moment it is in package src because I import it from the project's
// root folder.
package src

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/vankolev/coverd/src/art"
	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/backfill"
	"github.com/vankolev/coverd/src/config"
	"github.com/vankolev/coverd/src/fetch"
	"github.com/vankolev/coverd/src/helpers"
	"github.com/vankolev/coverd/src/library"
	"github.com/vankolev/coverd/src/netpolicy"
	"github.com/vankolev/coverd/src/queue"
	"github.com/vankolev/coverd/src/scaler"
	"github.com/vankolev/coverd/src/version"
	"github.com/vankolev/coverd/src/webserver"
)

var (
	showVersion bool
)

func init() {
	flag.BoolVar(&showVersion, "v", false, "Show version and build information.")
}

// Main is the only thing run in the project's root main.go file. For all
// intent and purposes this is the main function.
func Main(sqlFilesFS fs.FS, defaultConfigFS fs.FS) {
	flag.Parse()

	if showVersion {
		version.Print(os.Stdout)
		return
	}

	userPath, err := helpers.ProjectUserPath()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	cfg := new(config.Config)
	if err := cfg.FindAndParse(defaultConfigFS); err != nil {
		log.Printf("Parsing configuration: %s\n", err)
		os.Exit(1)
	}
	if cfg.UserPath != "" {
		userPath = cfg.UserPath
	}

	if cfg.LogFile != "" {
		logFile := helpers.AbsolutePath(cfg.LogFile, userPath)
		if err := helpers.SetLogsFile(afero.NewOsFs(), logFile); err != nil {
			log.Println(err)
			os.Exit(1)
		}
	}

	q := queue.New(
		atLeast(int64(cfg.RequestConcurrency), 1),
		time.Duration(cfg.RequestDelayMs)*time.Millisecond,
		time.Duration(cfg.RequestTimeoutMs)*time.Millisecond,
		cfg.UserAgent,
	)
	defer q.Stop()

	storage := afero.NewBasePathFs(afero.NewOsFs(), userPath)
	dbPath := helpers.AbsolutePath(cfg.SqliteDatabase, userPath)

	cache, err := artcache.New(dbPath, storage, sqlFilesFS)
	if err != nil {
		log.Printf("Creating the artwork cache: %s\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	hostDB, err := library.OpenHostDB(
		helpers.AbsolutePath(cfg.HostDatabase, userPath),
	)
	if err != nil {
		log.Printf("Opening the host library: %s\n", err)
		os.Exit(1)
	}
	defer hostDB.Close()

	scl := scaler.New(context.Background())
	defer scl.Cancel()

	policy := netpolicy.NewState()

	providers := map[string]art.Provider{
		"musicbrainz": art.NewMusicBrainzProvider(q, cfg.UserAgent),
		"fanart":      art.NewFanartProvider(q, cfg.FanartAPIKey),
		"lastfm":      art.NewLastFmProvider(q, cfg.LastFmAPIKey),
	}

	engine := fetch.New(cache, q, policy, scl, fetch.Settings{
		AlbumProvider:  cfg.AlbumProvider,
		ArtistProvider: cfg.ArtistProvider,
		WifiOnly:       cfg.WifiOnly,
	}, providers)

	orchestrator := backfill.New(hostDB, cache, engine, policy, q)

	srv := webserver.NewServer(*cfg, engine, cache, orchestrator, q, policy)
	srv.Serve()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-signals
		log.Printf("Stopping on %s\n", sig)
		orchestrator.Cancel()
		srv.Stop()
	}()

	srv.Wait()
}

func atLeast(value, min int64) int64 {
	if value < min {
		return min
	}
	return value
}
