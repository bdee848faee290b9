package badger

import (
	"io"
	"io/ioutil"
	"log"
)

var logger *log.Logger

// SetLogger overrides the logger output for this package, including the
// internal logs of databases opened with OpenDir.
func SetLogger(w io.Writer) {
	flags := log.Flags()
	prefix := "[store/badger] "
	logger = log.New(w, prefix, flags)
}

func init() {
	SetLogger(ioutil.Discard)
}

// badgerLogger adapts the package logger to badger.Logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Printf("ERROR: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Printf("WARNING: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Printf("INFO: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Printf("DEBUG: "+format, args...)
}
