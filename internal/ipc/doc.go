// Package ipc connects the stylus CLI to the running daemon over a JSON-RPC
// Unix socket.
//
// The server side owns socket creation and cleanup and exposes daemon
// operations (enqueue, queue views, stop/retry, health) as RPC methods. The
// client side wraps each call with a context timeout so commands fail fast
// when no daemon is listening, letting callers fall back to direct database
// access. Wire DTOs here are deliberately flat translations of the queue
// models; extend them rather than sending queue types over the socket.
package ipc
