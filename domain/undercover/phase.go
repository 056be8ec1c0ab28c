package undercover

// Phase represents the current stage of a game session.
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseWord     Phase = "WORD_PHASE"
	PhaseDebate   Phase = "DEBATE"
	PhaseVoting   Phase = "VOTING"
	PhaseResult   Phase = "RESULT"
	PhaseFinished Phase = "FINISHED"
)

func (p Phase) String() string {
	return string(p)
}

// Display returns a short human-readable label for the phase.
func (p Phase) Display() string {
	switch p {
	case PhaseLobby:
		return "Waiting for players"
	case PhaseWord:
		return "Word round"
	case PhaseDebate:
		return "Debate"
	case PhaseVoting:
		return "Vote"
	case PhaseResult:
		return "Result"
	case PhaseFinished:
		return "Finished"
	}
	return string(p)
}

// Role is one of the two camps a player can belong to. Impostors receive no
// word and must guess the citizens' secret word.
type Role string

const (
	RoleCitizen  Role = "CITIZEN"
	RoleImpostor Role = "IMPOSTOR"
)

func (r Role) Display() string {
	if r == RoleImpostor {
		return "Impostor"
	}
	return "Citizen"
}
