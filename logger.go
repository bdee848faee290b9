package main

import (
	"io"
	"io/ioutil"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	"github.com/vipnode/xmlrpc/handlers"
	"github.com/vipnode/xmlrpc/registry"
	badgerStore "github.com/vipnode/xmlrpc/store/badger"
	"github.com/vipnode/xmlrpc/xmlrpc"
	"github.com/vipnode/xmlrpc/xmlrpc/ws"
)

var logger *golog.Logger

// SetLogger overrides the main logger of this command.
func SetLogger(l *golog.Logger) {
	logger = l
}

// setSubpackageLoggers enables logging from subpackages.
func setSubpackageLoggers(w io.Writer) {
	xmlrpc.SetLogger(w)
	ws.SetLogger(w)
	handlers.SetLogger(w)
	registry.SetLogger(w)
	badgerStore.SetLogger(w)
}

func init() {
	// Set a default null logger
	SetLogger(golog.New(ioutil.Discard, log.Debug))
}
