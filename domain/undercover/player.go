package undercover

import (
	"fmt"

	"github.com/google/uuid"
)

// UDPPortOffset is added to a player's reliable (TCP) port to derive the
// default port for game traffic, unless the peer advertises another one.
const UDPPortOffset = 1000

// Player represents one participant of a session. The identity is assigned
// once on creation and never changes; elimination only flips Alive.
type Player struct {
	ID      string
	Name    string
	IP      string
	Port    int // reliable channel, join handshake only
	UDPPort int // best-effort channel, game traffic

	Role       Role
	Alive      bool
	HasVoted   bool
	VotedFor   string
	SpokenWord string
	IsHost     bool
	IsReady    bool
}

// NewPlayer creates a player with a freshly generated identity.
func NewPlayer(name, ip string, port int) *Player {
	return RestorePlayer(newID(), name, ip, port, port+UDPPortOffset)
}

// RestorePlayer recreates a player whose identity and endpoints are already
// known, typically from a roster snapshot or a join request.
func RestorePlayer(id, name, ip string, port, udpPort int) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		IP:      ip,
		Port:    port,
		UDPPort: udpPort,
		Role:    RoleCitizen,
		Alive:   true,
	}
}

// ResetForRound clears the per-round state. Role, liveness and identity are
// left untouched.
func (p *Player) ResetForRound() {
	p.HasVoted = false
	p.VotedFor = ""
	p.SpokenWord = ""
}

// Addr returns the reliable-channel address of the player.
func (p *Player) Addr() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

// UDPAddr returns the best-effort-channel address of the player.
func (p *Player) UDPAddr() string {
	return fmt.Sprintf("%s:%d", p.IP, p.UDPPort)
}

func newID() string {
	return uuid.New().String()[:8]
}
