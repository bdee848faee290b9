package xmlrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
)

const httpContentType = "text/xml"

// Config controls the wire behavior of an HTTPServer.
type Config struct {
	// EnabledForExtensions accepts and emits the Apache vendor extensions.
	EnabledForExtensions bool
	// ContentLengthOptional accepts requests without a Content-Length
	// header (such as chunked requests). When false, they are rejected with
	// 411 Length Required.
	ContentLengthOptional bool
	// MaxContentLength is the request size limit (optional)
	MaxContentLength int64
}

var _ http.Handler = &HTTPServer{}

// HTTPServer provides an XML-RPC server over HTTP by implementing
// http.Handler.
type HTTPServer struct {
	Server
	Config
}

func (h *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Chunked bodies and bodies read until EOF have no declared length.
	declared := len(r.TransferEncoding) == 0 && (r.ContentLength > 0 || r.Header.Get("Content-Length") != "")
	if !h.ContentLengthOptional && !declared {
		http.Error(w, "content length required", http.StatusLengthRequired)
		return
	}

	if h.MaxContentLength > 0 && r.ContentLength > h.MaxContentLength {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}

	defer r.Body.Close()
	var body io.Reader = r.Body
	if h.MaxContentLength > 0 {
		// Read one byte past the limit to tell undeclared oversized bodies
		// apart from ones that fit exactly.
		data, err := ioutil.ReadAll(io.LimitReader(r.Body, h.MaxContentLength+1))
		if err != nil {
			http.Error(w, "failed to read request", http.StatusBadRequest)
			return
		}
		if int64(len(data)) > h.MaxContentLength {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		body = bytes.NewReader(data)
	}

	dec := NewDecoder(body)
	dec.Extensions = h.EnabledForExtensions

	var resp *MethodResponse
	msg, err := dec.Decode()
	var encErr UnsupportedEncodingError
	switch {
	case errors.As(err, &encErr):
		resp = NewFault(FaultUnsupportedEncoding, "unsupported request encoding: %s", encErr.Encoding).Response()
	case err != nil:
		resp = NewFault(FaultParse, "failed to parse request: %s", err).Response()
	case msg.Call == nil:
		resp = NewFault(FaultInvalidRequest, "expected a methodCall").Response()
	default:
		resp = h.Server.Handle(r.Context(), msg.Call)
	}

	out, err := Marshal(&Message{Response: resp}, h.EnabledForExtensions)
	if err != nil {
		logger.Printf("failed to encode response from %s: %s", r.RemoteAddr, err)
		out, err = Marshal(&Message{
			Response: NewFault(FaultInternal, "failed to encode response: %s", err).Response(),
		}, h.EnabledForExtensions)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", httpContentType+"; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		logger.Printf("failed to write response to %s: %s", r.RemoteAddr, err)
	}
}

var _ Service = &HTTPService{}

// HTTPService calls methods of a remote XML-RPC server over HTTP.
type HTTPService struct {
	HTTPClient http.Client

	// Endpoint is the HTTP URL to dial for RPC calls.
	Endpoint string
	// EnabledForExtensions accepts and emits the Apache vendor extensions.
	EnabledForExtensions bool
	// MaxContentLength is the response size limit (optional)
	MaxContentLength int64
}

func (service *HTTPService) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	body, err := Marshal(&Message{Call: &MethodCall{
		MethodName: method,
		Params:     params,
	}}, service.EnabledForExtensions)
	if err != nil {
		return err
	}

	// bytes.Reader bodies are sent with a Content-Length.
	req, err := http.NewRequest(http.MethodPost, service.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", httpContentType)
	req.Header.Set("Accept", httpContentType)
	req = req.WithContext(ctx)

	resp, err := service.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HTTPRequestError{
			Response: resp,
			Reason:   fmt.Sprintf("bad status code: %d", resp.StatusCode),
		}
	}
	if service.MaxContentLength > 0 && resp.ContentLength > service.MaxContentLength {
		return HTTPRequestError{
			Response: resp,
			Reason:   "response too large",
		}
	}

	var r io.Reader = resp.Body
	if service.MaxContentLength > 0 {
		r = io.LimitReader(resp.Body, service.MaxContentLength)
	}

	dec := NewDecoder(r)
	dec.Extensions = service.EnabledForExtensions
	msg, err := dec.Decode()
	if err != nil {
		return err
	}
	if msg.Response == nil {
		return HTTPRequestError{
			Response: resp,
			Reason:   "missing methodResponse in reply",
		}
	}
	return msg.Response.UnmarshalResult(result)
}

// HTTPRequestError is used when RPC over HTTP encounters an error during transport.
type HTTPRequestError struct {
	Response *http.Response
	Reason   string
}

func (err HTTPRequestError) Error() string {
	return fmt.Sprintf("http rpc request error: %s", err.Reason)
}
