// Package gobwas implements the websocket transport with gobwas/ws.
package gobwas

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/vipnode/xmlrpc/xmlrpc"
)

// WebSocketDial returns a Codec over a client-side websocket connection.
func WebSocketDial(ctx context.Context, url string, extensions bool) (xmlrpc.Codec, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return clientWebSocketCodec(conn, extensions), nil
}

func clientWebSocketCodec(conn net.Conn, extensions bool) *wsCodec {
	return &wsCodec{
		conn:       conn,
		extensions: extensions,
		read:       wsutil.ReadServerData,
		write:      wsutil.WriteClientMessage,
	}
}

func serverWebSocketCodec(conn net.Conn, extensions bool) *wsCodec {
	return &wsCodec{
		conn:       conn,
		extensions: extensions,
		read:       wsutil.ReadClientData,
		write:      wsutil.WriteServerMessage,
	}
}

var _ xmlrpc.Codec = &wsCodec{}

type wsCodec struct {
	muWrite    sync.Mutex
	muRead     sync.Mutex
	conn       net.Conn
	extensions bool

	read  func(io.ReadWriter) ([]byte, ws.OpCode, error)
	write func(io.Writer, ws.OpCode, []byte) error
}

func (codec *wsCodec) ReadMessage() (*xmlrpc.Message, error) {
	codec.muRead.Lock()
	defer codec.muRead.Unlock()
	data, _, err := codec.read(codec.conn)
	if err != nil {
		var closed wsutil.ClosedError
		if errors.As(err, &closed) {
			return nil, io.EOF
		}
		return nil, err
	}
	return xmlrpc.Unmarshal(data, codec.extensions)
}

func (codec *wsCodec) WriteMessage(msg *xmlrpc.Message) error {
	data, err := xmlrpc.Marshal(msg, codec.extensions)
	if err != nil {
		return err
	}
	codec.muWrite.Lock()
	defer codec.muWrite.Unlock()
	return codec.write(codec.conn, ws.OpText, data)
}

func (codec *wsCodec) Close() error {
	return codec.conn.Close()
}

// Upgrader upgrades an HTTP request to a WebSocket request and returns the
// appropriate xmlrpc codec.
type Upgrader struct {
	Upgrader             ws.HTTPUpgrader
	EnabledForExtensions bool
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (xmlrpc.Codec, error) {
	conn, _, _, err := u.Upgrader.Upgrade(r, w)
	if err != nil {
		return nil, err
	}
	return serverWebSocketCodec(conn, u.EnabledForExtensions), nil
}
