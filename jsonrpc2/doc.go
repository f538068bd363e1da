/*
	Package jsonrpc2 implements JSONRPC 2.0 over HTTP, as spoken by the wallet
	processes attached to a gateway.

	Server is an RPC method registry. Given a receiver, it will expose its
	exported methods, or single methods under an explicit name.

	Client builds requests with increasing IDs.

	HTTPServer serves a Server over HTTP and HTTPService, a Service, calls a
	remote endpoint.
*/
package jsonrpc2
