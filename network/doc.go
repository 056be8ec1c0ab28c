// Package network provides the two communication channels of a game session
// and the routing of inbound messages.
//
// # Core Components
//
// Message: The single flat wire record exchanged between peers, discriminated
// by its Type field and encoded as JSON.
//
// Transport: Owns the sockets. The reliable channel (TCP, request/response on
// one connection) carries only the join handshake; the best-effort channel
// (UDP, one datagram per message, fire-and-forget) carries all in-game
// traffic.
//
// Router: Classifies inbound best-effort messages by type, filters duplicate
// deliveries through a bounded set of already-seen message keys, and
// dispatches to the registered handler.
//
// # Delivery Model
//
// The best-effort channel guarantees neither delivery nor ordering. The game
// protocol tolerates this: every broadcast is re-derivable from the host's
// authoritative state and periodic resyncs mask lost packets.
//
// Malformed payloads and unknown discriminators are dropped silently; they
// are never fatal.
package network
