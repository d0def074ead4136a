// Package services implements the REST client for the library backend.
//
// # Client
//
// [Client] wraps an [http.Client] with a base URL, an optional [rate.Limiter] and a logger. Every request carries
// an X-Request-ID. Authenticated copies are made with [Client.WithToken], which installs an [oauth2.Transport] that
// adds the bearer header; endpoints that need a session fail fast with [shared.ErrNotAuthenticated] otherwise.
//
// # Responses
//
// The backend wraps most payloads in an envelope:
//
//	{"status": true, "message": "...", "data": ...}
//
// doRequest unwraps data when present and falls back to decoding the whole body.
//
// # Error Handling
//
//   - [shared.ErrNetwork] : transport failure, nothing came back
//   - [StatusError] : non-2xx response or an envelope with a false status; unwraps to [shared.ErrServer], plus
//     [shared.ErrNotAuthenticated] for 401 and [shared.ErrItemNotFound] for 404
//   - [shared.ErrMissingArgument], [shared.ErrInvalidArgument] : rejected before any request is made
package services
