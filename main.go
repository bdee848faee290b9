package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"
	"github.com/vipnode/xmlrpc/handlers"
	"github.com/vipnode/xmlrpc/xmlrpc"
)

// Version of the binary, assigned during build.
var Version string = "dev"

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`

	Client struct {
		Args struct {
			Method string   `positional-arg-name:"method" description:"RPC method to call. (default: test.hello)"`
			Params []string `positional-arg-name:"params" description:"String params of the call. (default: World)"`
		} `positional-args:"yes"`
		Endpoint   string        `long:"endpoint" description:"Server URL, http(s):// or ws(s)://." default:"http://localhost:8000"`
		Registry   []string      `long:"registry" description:"etcd endpoint to discover the server from, instead of --endpoint. Can be repeated."`
		Service    string        `long:"service" description:"Service name to discover with --registry." default:"xmlrpc"`
		Extensions bool          `long:"extensions" description:"Enable vendor extensions (nil, i1, i2, i8, float)."`
		Timeout    time.Duration `long:"timeout" description:"Timeout of the call." default:"5s"`
	} `command:"client" description:"Call a method on an XML-RPC server and print the result."`

	Server struct {
		Bind                  string        `long:"bind" description:"Address and port to listen on." default:":8000"`
		Handlers              string        `long:"handlers" description:"Path of the handler mapping properties file." default:"test/handlers.properties"`
		NoExtensions          bool          `long:"no-extensions" description:"Disable vendor extensions (nil, i1, i2, i8, float)."`
		ContentLengthOptional bool          `long:"content-length-optional" description:"Accept requests without a Content-Length header."`
		MaxContentLength      int64         `long:"max-content-length" description:"Request size limit in bytes, 0 for none." default:"0"`
		Store                 string        `long:"store" description:"Call statistics storage driver. (persist|memory)" default:"memory"`
		DataDir               string        `long:"datadir" description:"Path for storing the persistent database. (default: $XDG_DATA_HOME/xmlrpc)"`
		Rate                  float64       `long:"rate" description:"Calls per second to allow, 0 for no limit." default:"0"`
		Burst                 int           `long:"burst" description:"Calls allowed in a burst over --rate." default:"10"`
		CallTimeout           time.Duration `long:"call-timeout" description:"Time limit of each call, 0 for none." default:"0"`
		AllowOrigin           string        `long:"allow-origin" description:"Access-Control-Allow-Origin header for RPC over HTTP."`
		Registry              []string      `long:"registry" description:"etcd endpoint to announce the server on. Can be repeated."`
		Service               string        `long:"service" description:"Service name to announce with --registry." default:"xmlrpc"`
		Announce              string        `long:"announce" description:"Public endpoint URL to announce. (default: http:// of the listening address)"`
	} `command:"server" description:"Start an XML-RPC server for the handlers in a mapping file."`
}

const clientUsage = `Examples:
* Call test.hello("World") on a local server:
  $ xmlrpc client

* Call a method with params:
  $ xmlrpc client --endpoint="http://localhost:8000" test.hello "Gopher"

* List the methods of a server over a websocket:
  $ xmlrpc client --endpoint="ws://localhost:8000" system.listMethods
`

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func subcommand(ctx context.Context, cmd string, options Options) error {
	switch cmd {
	case "client":
		return runClient(ctx, options, os.Stdout)
	case "server":
		return runServer(ctx, options, os.Stdout)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	parser.SubcommandsOptional = true
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Println(err)
		}
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			// Print additional usage help when run with --help
			if parser.Active != nil && parser.Active.Name == "client" {
				exit(0, clientUsage)
			}
			return
		}
		os.Exit(1)
	}

	if options.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logWriter := os.Stderr

	SetLogger(golog.New(logWriter, logLevel))
	if logLevel == log.Debug {
		setSubpackageLoggers(logWriter)
	}

	cmd := "client"
	if parser.Active != nil {
		cmd = parser.Active.Name
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = subcommand(ctx, cmd, options)
	stop()
	if err == nil {
		return
	}

	if err == io.EOF {
		exit(3, "Connection closed.\n")
	}

	var fault *xmlrpc.Fault
	var httpErr xmlrpc.HTTPRequestError
	var netErr net.Error
	var explained ErrExplain
	switch {
	case errors.As(err, &explained):
		// All good.
	case errors.As(err, &fault):
		switch fault.ErrorCode() {
		case xmlrpc.FaultMethodNotFound:
			err = ErrExplain{err, `The server does not have this method. Check the method name, or call system.listMethods to see what the server has.`}
		case xmlrpc.FaultInvalidParams:
			err = ErrExplain{err, `The method was called with the wrong number or types of params.`}
		case xmlrpc.FaultParse, xmlrpc.FaultInternal:
			err = ErrExplain{err, `The server failed to process the call. Check whether both sides agree on --extensions.`}
		default:
			err = ErrExplain{err, fmt.Sprintf(`The server returned a fault (code %d).`, fault.ErrorCode())}
		}
	case errors.As(err, &httpErr):
		err = ErrExplain{err, `The server did not respond with XML-RPC. Make sure --endpoint points at an XML-RPC server.`}
	case errors.As(err, &netErr):
		err = ErrExplain{err, `Could not reach the server. Could be a connectivity issue or the server is down. Try again?`}
	case errors.Is(err, context.DeadlineExceeded):
		err = ErrExplain{err, `The call timed out. Try a longer --timeout?`}
	default:
		err = ErrExplain{err, fmt.Sprintf(`Error type %T is missing an explanation. Please open an issue at https://github.com/vipnode/xmlrpc`, err)}
	}

	exit(2, "%s failed: %s\n", cmd, err)
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

// ErrExplain annotates an error with an explanation.
type ErrExplain struct {
	Cause       error
	Explanation string
}

func (err ErrExplain) Error() string {
	return fmt.Sprintf("%s\n -> %s", err.Cause, err.Explanation)
}

func (err ErrExplain) Unwrap() error {
	return err.Cause
}

func explainMapping(err error, path string) error {
	var unknown handlers.UnknownHandlerError
	if errors.As(err, &unknown) {
		return ErrExplain{err, fmt.Sprintf(`The handler mapping %q names a handler type which this server does not have. Known types: %s`, path, knownHandlers())}
	}
	return ErrExplain{err, fmt.Sprintf(`Failed to load the handler mapping %q. Use --handlers="..." to specify the correct path.`, path)}
}
