// Package undercover implements the domain logic for the Undercover
// social-deduction word game: roles, phases, turn order, voting and the
// win conditions.
//
// # Core Types
//
// Session: Represents the complete authoritative state of one game, including
// the roster, the current phase, the secret word, the turn order and the
// bounded message log.
//
// Player: Represents a single participant with their role, liveness and
// per-round state.
//
// Message: Represents one entry of the session log (chat, spoken word,
// vote, system event).
//
// # Game Flow
//
// A game progresses through phases: Lobby → WordPhase → Debate → Voting →
// Result → (WordPhase | Finished). During WordPhase every living player, in a
// randomized order, gives exactly one word. Citizens all know the secret word;
// impostors receive none and must blend in. After the debate everyone votes,
// a unique majority is eliminated, and the game ends when either no impostor
// is left alive or impostors match or outnumber the citizens.
//
// The package performs no I/O and no locking. All mutating operations that can
// violate a precondition report failure through their boolean result instead
// of returning an error; serialization of mutations is the caller's concern.
package undercover
