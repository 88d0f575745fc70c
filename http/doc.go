// Package http serves a storage namespace over the REST protocol spoken by
// the manta client, so the client can be exercised against a local server.
//
// # Routes
//
// Every path is "/<account>/stor/..." and names either a directory or an
// object:
//
//	GET    directory  listing, one JSON object per line
//	GET    object     payload with ETag, Content-MD5, Last-Modified and m-* headers
//	HEAD   any        headers only
//	PUT    directory  Content-Type "application/json; type=directory"
//	PUT    object     any other Content-Type; Content-MD5 is verified when sent
//	DELETE any        objects and empty directories
//
// Listings accept "limit" and "marker" query parameters. Errors are JSON
// bodies with "code" and "message" fields.
//
// # Authentication
//
// AuthMiddleware verifies the Authorization header with a RequestVerifier
// and rejects requests for another account's namespace:
//
//	keys, _ := keybackend.NewKeyStore(cfg.Keys)
//	verifier := manta.NewVerifier(keys, manta.MaxClockSkew)
//
//	handler := http.NewHandler(&http.HandlerConfig{Verifier: verifier}, svc)
//	http.ListenAndServe(":8080", handler.Router())
//
// A nil verifier disables authentication.
package http
