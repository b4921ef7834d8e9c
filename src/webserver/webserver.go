// Package webserver is the HTTP control surface of coverd. It exposes the
// artwork itself along with endpoints for driving the backfill, clearing
// the cache and telling the daemon about network policy changes.
package webserver

import (
	"crypto/tls"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/vankolev/coverd/src/artcache"
	"github.com/vankolev/coverd/src/backfill"
	"github.com/vankolev/coverd/src/config"
	"github.com/vankolev/coverd/src/fetch"
	"github.com/vankolev/coverd/src/netpolicy"
	"github.com/vankolev/coverd/src/queue"
)

// Server represents our webserver. It will be controlled from here.
type Server struct {

	// Configuration of this server.
	cfg config.Config

	// WG used in Server.Wait to sync with the server's end.
	wg sync.WaitGroup

	// Makes sure Serve does not return before all the starting work has
	// been finished.
	startWG sync.WaitGroup

	// The actual http.Server doing the HTTP work.
	httpSrv *http.Server

	// The server's net.Listener. Used in the Server.Stop func.
	listener net.Listener

	engine   *fetch.Engine
	cache    *artcache.Cache
	backfill *backfill.Orchestrator
	artQueue *queue.Queue
	policy   *netpolicy.State
}

// NewServer returns a new Server using the supplied configuration cfg. The
// returned server is ready and calling its Serve method will start it.
func NewServer(
	cfg config.Config,
	engine *fetch.Engine,
	cache *artcache.Cache,
	orchestrator *backfill.Orchestrator,
	artQueue *queue.Queue,
	policy *netpolicy.State,
) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		cache:    cache,
		backfill: orchestrator,
		artQueue: artQueue,
		policy:   policy,
	}
}

// Serve actually starts the webserver. It attaches all the handlers and
// starts listening while consulting the configuration supplied. Trying to
// call this method more than once for the same server will result in panic.
func (srv *Server) Serve() {
	if srv.listener != nil {
		panic("Second Server.Serve call for the same server")
	}
	srv.wg.Add(1)
	srv.startWG.Add(1)
	go srv.serveGoroutine()
	srv.startWG.Wait()
}

func (srv *Server) serveGoroutine() {
	defer srv.wg.Done()

	handler := srv.Handler()

	srv.httpSrv = &http.Server{
		Addr:           srv.cfg.Listen,
		Handler:        handler,
		ReadTimeout:    time.Duration(srv.cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(srv.cfg.WriteTimeout) * time.Second,
		MaxHeaderBytes: srv.cfg.MaxHeadersSize,
	}

	var reason error

	if srv.cfg.SSL {
		reason = srv.listenAndServeTLS(
			srv.cfg.SSLCertificate.Crt,
			srv.cfg.SSLCertificate.Key,
		)
	} else {
		reason = srv.listenAndServe()
	}

	log.Println("Webserver stopped.")

	if reason != nil {
		log.Printf("Reason: %s\n", reason.Error())
	}
}

// Handler builds the complete HTTP handler of the server: the API routes
// with the gzip and basic authenticate handlers around them as configured.
func (srv *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.StrictSlash(true)

	router.Handle(
		APIv1EndpointAlbumArtwork,
		NewAlbumArtworkHandler(srv.engine, srv.cache),
	).Methods(APIv1Methods[APIv1EndpointAlbumArtwork]...)

	router.Handle(
		APIv1EndpointArtistImage,
		NewArtistImageHandler(srv.engine, srv.cache),
	).Methods(APIv1Methods[APIv1EndpointArtistImage]...)

	router.Handle(
		APIv1EndpointBackfill,
		NewBackfillHandler(srv.backfill),
	).Methods(APIv1Methods[APIv1EndpointBackfill]...)

	router.Handle(
		APIv1EndpointCache,
		NewCacheHandler(srv.cache),
	).Methods(APIv1Methods[APIv1EndpointCache]...)

	router.Handle(
		APIv1EndpointCacheNotFound,
		NewCacheNotFoundHandler(srv.cache),
	).Methods(APIv1Methods[APIv1EndpointCacheNotFound]...)

	router.Handle(
		APIv1EndpointNetworkPolicy,
		NewNetworkPolicyHandler(
			srv.artQueue,
			srv.policy,
			srv.backfill,
			srv.cfg.WifiOnly,
		),
	).Methods(APIv1Methods[APIv1EndpointNetworkPolicy]...)

	router.Handle(
		APIv1EndpointEvents,
		NewEventsHandler(srv.engine),
	).Methods(APIv1Methods[APIv1EndpointEvents]...)

	var handler http.Handler = router

	if srv.cfg.Gzip {
		log.Println("Adding gzip handler")
		handler = NewGzipHandler(handler, []string{APIv1EndpointEvents})
	}

	if srv.cfg.Auth {
		log.Println("Adding basic authenticate handler")
		handler = BasicAuthHandler{
			wrapped:  handler,
			username: srv.cfg.Authenticate.User,
			password: srv.cfg.Authenticate.Password,
		}
	}

	return handler
}

// listenAndServe uses our own listener to make our server stoppable.
// Similar to net.http.Server.ListenAndServe only this version saves a
// reference to the listener.
func (srv *Server) listenAndServe() error {
	addr := srv.httpSrv.Addr
	if addr == "" {
		addr = ":http"
	}
	lsn, err := net.Listen("tcp", addr)
	if err != nil {
		srv.startWG.Done()
		return err
	}
	srv.listener = lsn
	log.Println("Webserver started.")
	srv.startWG.Done()
	return srv.httpSrv.Serve(lsn)
}

// listenAndServeTLS uses our own listener to make our server stoppable.
// Similar to net.http.Server.ListenAndServeTLS only this version saves a
// reference to the listener.
func (srv *Server) listenAndServeTLS(certFile, keyFile string) error {
	addr := srv.httpSrv.Addr
	if addr == "" {
		addr = ":https"
	}

	tlsCfg := &tls.Config{}
	if srv.httpSrv.TLSConfig != nil {
		tlsCfg = srv.httpSrv.TLSConfig.Clone()
	}
	if tlsCfg.NextProtos == nil {
		tlsCfg.NextProtos = []string{"http/1.1"}
	}

	var err error
	tlsCfg.Certificates = make([]tls.Certificate, 1)
	tlsCfg.Certificates[0], err = tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		srv.startWG.Done()
		return err
	}

	conn, err := net.Listen("tcp", addr)
	if err != nil {
		srv.startWG.Done()
		return err
	}

	tlsListener := tls.NewListener(conn, tlsCfg)
	srv.listener = tlsListener
	log.Println("Webserver started.")
	srv.startWG.Done()
	return srv.httpSrv.Serve(tlsListener)
}

// Stop stops the webserver.
func (srv *Server) Stop() {
	if srv.listener != nil {
		_ = srv.listener.Close()
		srv.listener = nil
	}
}

// Wait syncs whoever called this with the server's stop.
func (srv *Server) Wait() {
	srv.wg.Wait()
}
