// Package client is the client side of the Conduit API.
//
// GRPCClient manages the connection, attaches the session token to protected
// calls and maps gRPC status codes to sentinel errors (ErrUnavailable,
// ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrInvalidInput)
// that callers match with errors.Is. The server's message is
// kept in the error text.
//
// GRPCClient is safe for concurrent use. All operations honor the context.
package client
