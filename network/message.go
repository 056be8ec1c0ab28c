package network

// Wire message discriminators. The join handshake types travel on the
// reliable channel; everything else is best-effort.
const (
	TypeJoinRequest  = "JOIN_REQUEST"
	TypeJoinAccepted = "JOIN_ACCEPTED"
	TypeJoinRejected = "JOIN_REJECTED"

	TypePlayerList  = "PLAYER_LIST"
	TypeGameStart   = "GAME_START"
	TypePhaseChange = "PHASE_CHANGE"
	TypeWordSpoken  = "WORD_SPOKEN"
	TypeChat        = "CHAT"
	TypeVote        = "VOTE"
	TypeGuess       = "GUESS"
	TypeGameEnd     = "GAME_END"
	TypeTurnStart   = "TURN_START"
	TypeTimerSync   = "TIMER_SYNC"
	TypeTurnTimeout = "TURN_TIMEOUT"
	TypeRoundEnd    = "ROUND_END"
	TypeLeave       = "LEAVE"
	TypePing        = "PING"
	TypePong        = "PONG"
)

// PlayerInfo is one roster entry of a PLAYER_LIST snapshot.
type PlayerInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	UDPPort  int    `json:"udpPort"`
	IsHost   bool   `json:"isHost"`
	Alive    bool   `json:"alive"`
	HasVoted bool   `json:"hasVoted"`
}

// Message is the flat wire record exchanged between peers. Only Type is
// always present; the other fields depend on the discriminator and are
// omitted when empty.
type Message struct {
	Type string `json:"type"`

	// Sender identity and endpoints.
	PlayerID      string `json:"playerId,omitempty"`
	PlayerName    string `json:"playerName,omitempty"`
	PlayerIP      string `json:"playerIp,omitempty"`
	PlayerPort    int    `json:"playerPort,omitempty"`
	PlayerUDPPort int    `json:"playerUdpPort,omitempty"`

	// Join handshake.
	Success     bool   `json:"success,omitempty"`
	Reason      string `json:"reason,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	SessionName string `json:"sessionName,omitempty"`
	HostIP      string `json:"hostIp,omitempty"`
	HostUDPPort int    `json:"hostUdpPort,omitempty"`

	// Roster snapshot.
	Players []PlayerInfo `json:"players,omitempty"`

	// Game events. Word doubles as the citizens' secret in GAME_START and as
	// the spoken word in WORD_SPOKEN; an absent Word in GAME_START means the
	// recipient is an impostor.
	Role     string `json:"role,omitempty"`
	Word     string `json:"word,omitempty"`
	Text     string `json:"message,omitempty"`
	VoterID  string `json:"voterId,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	Guess    string `json:"guess,omitempty"`
	Phase    string `json:"state,omitempty"`

	// Turn and timer synchronization.
	CurrentPlayerID  string   `json:"currentPlayerId,omitempty"`
	RemainingSeconds int      `json:"remainingSeconds,omitempty"`
	CurrentTurnIndex int      `json:"currentTurnIndex,omitempty"`
	TurnOrder        []string `json:"turnOrder,omitempty"`

	// Timestamp is used only for duplicate filtering, never for ordering.
	Timestamp int64 `json:"timestamp,omitempty"`

	// Reply-path metadata for keep-alive pings.
	SenderIP      string `json:"senderIp,omitempty"`
	SenderUDPPort int    `json:"senderUdpPort,omitempty"`
}
