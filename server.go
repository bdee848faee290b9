package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/OpenPeeDeeP/xdg"
	"github.com/vipnode/xmlrpc/handlers"
	"github.com/vipnode/xmlrpc/hello"
	"github.com/vipnode/xmlrpc/registry"
	"github.com/vipnode/xmlrpc/store"
	badgerStore "github.com/vipnode/xmlrpc/store/badger"
	"github.com/vipnode/xmlrpc/xmlrpc"
	"github.com/vipnode/xmlrpc/xmlrpc/ws"
	"github.com/vipnode/xmlrpc/xmlrpc/ws/gobwas"
	"golang.org/x/sync/errgroup"
)

// registryTTL is the lease of an announced server, renewed while it runs.
const registryTTL = 10 * time.Second

// catalog is the set of handler types that a mapping file can name.
var catalog = handlers.Catalog{
	"hello.Handler": func() interface{} { return &hello.Handler{} },
}

func knownHandlers() string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// findDataDir returns a valid data dir, will create it if it doesn't
// exist.
func findDataDir(overridePath string) (string, error) {
	path := overridePath
	if path == "" {
		path = xdg.New("vipnode", "xmlrpc").DataHome()
	}
	err := os.MkdirAll(path, 0700)
	return path, err
}

func openStore(driver string, dataDir string) (store.Store, error) {
	switch driver {
	case "memory":
		return store.MemoryStore(), nil
	case "persist", "badger":
		dir, err := findDataDir(dataDir)
		if err != nil {
			return nil, err
		}
		s, err := badgerStore.OpenDir(dir)
		if err != nil {
			return nil, ErrExplain{err, fmt.Sprintf("Failed to open the persistent store in %q. Is another server using it?", dir)}
		}
		logger.Infof("Persistent store using badger backend: %s", dir)
		return s, nil
	}
	return nil, ErrExplain{
		fmt.Errorf("storage driver not implemented: %q", driver),
		"Use --store=memory or --store=persist.",
	}
}

// server serves XML-RPC over HTTP POST, and over websockets for upgrade
// requests.
type server struct {
	xmlrpc.HTTPServer
	ws     ws.Upgrader
	header http.Header
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !ws.IsUpgrade(r) {
			http.Error(w, "expected XML-RPC over POST or a websocket upgrade", http.StatusBadRequest)
			return
		}
		ws.Handler(s.ws, &s.HTTPServer.Server)(w, r)
	default:
		for k, values := range s.header {
			for _, v := range values {
				w.Header().Set(k, v)
			}
		}
		s.HTTPServer.ServeHTTP(w, r)
	}
}

// newServer builds the server from the options. The returned store should be
// closed after use.
func newServer(options Options) (*server, store.Store, error) {
	opts := options.Server
	mapping, err := handlers.Load(opts.Handlers, catalog)
	if err != nil {
		return nil, nil, explainMapping(err, opts.Handlers)
	}

	storeDriver, err := openStore(opts.Store, opts.DataDir)
	if err != nil {
		return nil, nil, err
	}

	extensions := !opts.NoExtensions
	handler := &server{
		HTTPServer: xmlrpc.HTTPServer{
			Config: xmlrpc.Config{
				EnabledForExtensions:  extensions,
				ContentLengthOptional: opts.ContentLengthOptional,
				MaxContentLength:      opts.MaxContentLength,
			},
		},
		ws:     &gobwas.Upgrader{EnabledForExtensions: extensions},
		header: http.Header{},
	}
	if opts.AllowOrigin != "" {
		handler.header.Set("Access-Control-Allow-Origin", opts.AllowOrigin)
	}

	handler.Use(xmlrpc.LoggingMiddleware())
	if opts.Rate > 0 {
		handler.Use(xmlrpc.RateLimitMiddleware(opts.Rate, opts.Burst))
	}
	handler.Use(xmlrpc.RecordMiddleware(storeDriver))
	if opts.CallTimeout > 0 {
		handler.Use(xmlrpc.TimeoutMiddleware(opts.CallTimeout))
	}

	if err := mapping.Apply(handler); err != nil {
		storeDriver.Close()
		return nil, nil, err
	}
	if err := handler.Register("stats.", &store.StatsService{Store: storeDriver}); err != nil {
		storeDriver.Close()
		return nil, nil, err
	}
	logger.Infof("Loaded handler mapping %s: %s", opts.Handlers, strings.Join(mapping.Prefixes(), ", "))
	return handler, storeDriver, nil
}

func announce(ctx context.Context, options Options, addr net.Addr) (func(), error) {
	opts := options.Server
	endpoint := opts.Announce
	if endpoint == "" {
		endpoint = "http://" + addr.String()
	}
	reg, err := registry.NewEtcdRegistry(opts.Registry)
	if err != nil {
		return nil, err
	}
	instance := registry.Instance{Addr: endpoint, Version: Version}
	if err := reg.Register(ctx, opts.Service, instance, registryTTL); err != nil {
		reg.Close()
		return nil, ErrExplain{err, "Failed to announce the server. Check the --registry endpoints."}
	}
	logger.Infof("Announced %s as %q on the registry", endpoint, opts.Service)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := reg.Deregister(ctx, opts.Service, endpoint); err != nil {
			logger.Warningf("Failed to deregister: %s", err)
		}
		reg.Close()
	}, nil
}

func listenPort(addr net.Addr) string {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("%d", tcpAddr.Port)
	}
	return addr.String()
}

// serve runs the server on the listener until ctx is done.
func serve(ctx context.Context, options Options, l net.Listener, handler http.Handler, out io.Writer) error {
	if len(options.Server.Registry) > 0 {
		deregister, err := announce(ctx, options, l.Addr())
		if err != nil {
			return err
		}
		defer deregister()
	}

	srv := &http.Server{Handler: handler}
	fmt.Fprintf(out, "Starting server on port %s...\n", listenPort(l.Addr()))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(l); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runServer(ctx context.Context, options Options, out io.Writer) error {
	handler, storeDriver, err := newServer(options)
	if err != nil {
		return err
	}
	defer storeDriver.Close()

	l, err := net.Listen("tcp", options.Server.Bind)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "listen" {
			return ErrExplain{err, fmt.Sprintf("Failed to listen on %q. Is another server running? Use --bind to pick another address.", options.Server.Bind)}
		}
		return err
	}
	return serve(ctx, options, l, handler, out)
}
