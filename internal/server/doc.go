// Package server lets remote clients watch and drive the player engine.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestID], [Logging] and [Recover] are installed by [New].
//
// The [BasicRouter] implementation uses [http.ServeMux] with method-qualified patterns.
//
// # Remote Control
//
// [Remote] speaks socket.io. A client receives "pushState" as soon as it connects and again after every
// engine state change. It drives playback by emitting control events:
//
//	play [{"index": n} | {"trackId": id}]
//	pause, resume, stop, next, prev
//	seek <seconds>, seekPercent <0-100>, volume <0-1 or 0-100>
//	toggleShuffle, toggleRepeat, getState
//
// Rejected events are answered with "pushToastMessage".
//
// # HTTP Endpoints
//
//	GET /health     → {"status":"ok"}
//	GET /api/state  → current engine snapshot
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
