package common

// AuthorizationHeaderName is the gRPC metadata key used to carry the
// bearer token on protected requests.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only authorization scheme the server accepts.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed back to clients in the response header.
const RequestIDHeaderName = "x-request-id"
