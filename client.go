package main

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/vipnode/xmlrpc/registry"
	"github.com/vipnode/xmlrpc/xmlrpc"
	ws "github.com/vipnode/xmlrpc/xmlrpc/ws/gorilla"
)

const defaultMethod = "test.hello"

var defaultParams = []string{"World"}

// dialService returns the Service for an endpoint URL and a function to
// release it.
func dialService(ctx context.Context, endpoint string, extensions bool) (xmlrpc.Service, func(), error) {
	uri, err := url.Parse(endpoint)
	if err != nil {
		return nil, nil, ErrExplain{err, `Failed to parse --endpoint, it should be a URL such as "http://localhost:8000".`}
	}
	switch uri.Scheme {
	case "http", "https":
		return &xmlrpc.HTTPService{
			Endpoint:             endpoint,
			EnabledForExtensions: extensions,
		}, func() {}, nil
	case "ws", "wss":
		codec, err := ws.WebSocketDial(ctx, endpoint, extensions)
		if err != nil {
			return nil, nil, ErrExplain{err, "Failed to connect to the server's websocket."}
		}
		remote := &xmlrpc.Remote{Codec: codec}
		return remote, func() { remote.Close() }, nil
	}
	return nil, nil, ErrExplain{
		fmt.Errorf("unsupported endpoint scheme: %q", uri.Scheme),
		`Endpoints must be http://, https://, ws:// or wss:// URLs.`,
	}
}

func discoverEndpoint(ctx context.Context, endpoints []string, service string) (string, error) {
	reg, err := registry.NewEtcdRegistry(endpoints)
	if err != nil {
		return "", err
	}
	defer reg.Close()

	instance, err := registry.Resolve(ctx, reg, &registry.RoundRobin{}, service)
	if err == registry.ErrNoInstances {
		return "", ErrExplain{err, fmt.Sprintf("No %q servers are registered. Make sure a server is running with --registry.", service)}
	}
	if err != nil {
		return "", ErrExplain{err, "Failed to discover a server from the registry. Check the --registry endpoints."}
	}
	return instance.Addr, nil
}

func runClient(ctx context.Context, options Options, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, options.Client.Timeout)
	defer cancel()

	endpoint := options.Client.Endpoint
	if len(options.Client.Registry) > 0 {
		var err error
		endpoint, err = discoverEndpoint(ctx, options.Client.Registry, options.Client.Service)
		if err != nil {
			return err
		}
		logger.Infof("Discovered server: %s", endpoint)
	}

	method, args := options.Client.Args.Method, options.Client.Args.Params
	if method == "" {
		method, args = defaultMethod, defaultParams
	}
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		params = append(params, arg)
	}

	service, release, err := dialService(ctx, endpoint, options.Client.Extensions)
	if err != nil {
		return err
	}
	defer release()

	logger.Infof("Calling %s on %s", method, endpoint)
	var result interface{}
	if err := service.Call(ctx, &result, method, params...); err != nil {
		return err
	}
	fmt.Fprintln(out, result)
	return nil
}
