/*
	Package xmlrpc implements XML-RPC over HTTP, including the Apache vendor
	extensions (nil, i1, i2, i8, float).

	Server is an RPC method registry. Given a receiver, it will expose its
	exported methods as callable RPC methods, optionally wrapped in middleware.
	It also serves the system.* introspection methods.

	Service is an RPC caller. HTTPService calls over HTTP POST, Local calls a
	Server in-process, and Remote calls over any persistent Codec (such as a
	websocket connection).

	Codec is the transport and encoding. Values are encoded from Go types by
	reflection, and decoded into a generic form (int, bool, string, float64,
	time.Time, []byte, []interface{}, map[string]interface{}) which is then
	assigned into the argument types of the called method, or into the
	result pointer of the caller.
*/
package xmlrpc
