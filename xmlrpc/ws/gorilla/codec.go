// Websocket implementation using Gorilla's Websocket library
package gorilla

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vipnode/xmlrpc/xmlrpc"
)

// WebSocketDial returns a Codec that wraps a client-side connection with
// XML-RPC encoding and decoding.
func WebSocketDial(ctx context.Context, url string, extensions bool) (xmlrpc.Codec, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsCodec{conn: conn, extensions: extensions}, nil
}

var _ xmlrpc.Codec = &wsCodec{}

type wsCodec struct {
	muWrite    sync.Mutex
	muRead     sync.Mutex
	conn       *websocket.Conn
	extensions bool
}

func (codec *wsCodec) ReadMessage() (*xmlrpc.Message, error) {
	codec.muRead.Lock()
	defer codec.muRead.Unlock()
	_, data, err := codec.conn.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil, io.EOF
	}
	if err != nil {
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
	return codec.conn.WriteMessage(websocket.TextMessage, data)
}

func (codec *wsCodec) Close() error {
	return codec.conn.Close()
}

// Upgrader upgrades an HTTP request with gorilla/websocket.
type Upgrader struct {
	Upgrader             websocket.Upgrader
	EnabledForExtensions bool
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (xmlrpc.Codec, error) {
	conn, err := u.Upgrader.Upgrade(w, r, h)
	if err != nil {
		return nil, err
	}
	return &wsCodec{conn: conn, extensions: u.EnabledForExtensions}, nil
}
