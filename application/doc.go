// Package application wires the game domain to the network: it owns the only
// mutable reference to the session state and orchestrates the host-side turn
// and timer flow.
//
// # Core Components
//
// Controller: The facade the presentation layer talks to. Creating or joining
// a session, speaking, chatting, voting and guessing all go through it; every
// action is validated against the current phase and turn and silently ignored
// when invalid. Events flow back through the registered EventListener.
//
// Orchestrator methods (host only): The countdown per phase, turn
// advancement, vote resolution, win checks and the periodic resync
// broadcasts that keep the clients' projections converged.
//
// # Authority Model
//
// The host's session is the single source of truth. Clients hold a read-only
// projection rebuilt from broadcasts and never compute turns, phases or
// timers themselves. Client-originated actions are routed to the host, which
// applies them and relays the logical event to everyone but the sender.
package application
