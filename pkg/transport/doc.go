// Package transport provides HTTP-level cross-cutting middleware (request
// IDs, logging, panic recovery) and the error envelope shared by every
// endpoint. The route handlers themselves live in the http subpackage.
package transport
