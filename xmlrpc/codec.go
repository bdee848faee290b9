package xmlrpc

import (
	"io"
	"sync"
)

// Codec is an abstraction for receiving and sending XML-RPC messages over a
// persistent connection.
type Codec interface {
	ReadMessage() (*Message, error)
	WriteMessage(*Message) error
	Close() error
}

var _ Codec = &ioCodec{}

// IOCodec returns a Codec that reads and writes successive XML-RPC documents
// over a stream.
func IOCodec(rwc io.ReadWriteCloser, extensions bool) *ioCodec {
	enc := NewEncoder(rwc)
	enc.Extensions = extensions
	dec := NewDecoder(rwc)
	dec.Extensions = extensions
	return &ioCodec{
		enc:    enc,
		dec:    dec,
		closer: rwc,
	}
}

type ioCodec struct {
	muWrite sync.Mutex
	muRead  sync.Mutex
	enc     *Encoder
	dec     *Decoder
	closer  io.Closer
}

func (codec *ioCodec) ReadMessage() (*Message, error) {
	codec.muRead.Lock()
	defer codec.muRead.Unlock()
	return codec.dec.Decode()
}

func (codec *ioCodec) WriteMessage(msg *Message) error {
	codec.muWrite.Lock()
	defer codec.muWrite.Unlock()
	return codec.enc.Encode(msg)
}

func (codec *ioCodec) Close() error {
	return codec.closer.Close()
}
