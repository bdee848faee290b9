// Package ws serves XML-RPC over websockets, one document per message.
package ws

import (
	"io"
	"net/http"
	"strings"

	"github.com/vipnode/xmlrpc/xmlrpc"
)

// Upgrader takes an HTTP request, upgrades it to a websocket server and
// returns a codec interface. This allows switching between different websocket
// implementations.
type Upgrader interface {
	Upgrade(*http.Request, http.ResponseWriter, http.Header) (xmlrpc.Codec, error)
}

// IsUpgrade returns whether the request asks for a websocket upgrade.
func IsUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// Handler upgrades each request and serves calls from the connection until
// it is closed. Calls run with the request's context.
func Handler(upgrader Upgrader, h xmlrpc.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec, err := upgrader.Upgrade(r, w, nil)
		if err != nil {
			logger.Printf("websocket upgrade error from %s: %s", r.RemoteAddr, err)
			return
		}
		defer codec.Close()
		if err := xmlrpc.ServeCodec(r.Context(), codec, h); err != nil && err != io.EOF {
			logger.Printf("websocket serve error from %s: %s", r.RemoteAddr, err)
		}
	}
}
