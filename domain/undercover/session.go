package undercover

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Timer budgets in seconds. These are configuration constants of the game,
// not negotiated over the wire.
const (
	WordTimeSeconds   = 40
	DebateTimeSeconds = 90
	VoteTimeSeconds   = 30
)

// MinPlayersToStart is the minimum roster size for StartGame to succeed.
const MinPlayersToStart = 2

// maxMessages caps the session log; the oldest entries are evicted first.
const maxMessages = 100

// Session holds the complete state of one game. On the host it is the single
// source of truth; on clients it is a read-only projection rebuilt from
// broadcasts.
type Session struct {
	ID         string
	Name       string
	HostIP     string
	HostPort   int
	MaxPlayers int

	Players  []*Player
	Messages []Message
	Votes    map[string]int

	// TurnOrder is a shuffled permutation of the living players' ids,
	// regenerated every round. CurrentTurnIndex indexes into it and is always
	// within [0, len(TurnOrder)].
	TurnOrder        []string
	CurrentTurnIndex int

	Phase      Phase
	Round      int
	WinMessage string

	secretWord string
}

// NewSession creates an empty lobby-phase session.
func NewSession(name, hostIP string, hostPort, maxPlayers int) *Session {
	return &Session{
		ID:         newID(),
		Name:       name,
		HostIP:     hostIP,
		HostPort:   hostPort,
		MaxPlayers: maxPlayers,
		Votes:      make(map[string]int),
		Phase:      PhaseLobby,
	}
}

// AddPlayer appends a player to the roster. It fails when the roster is full
// or the identity is already present.
func (s *Session) AddPlayer(p *Player) bool {
	if len(s.Players) >= s.MaxPlayers {
		return false
	}
	if s.Player(p.ID) != nil {
		return false
	}
	s.Players = append(s.Players, p)
	s.AddMessage(NewMessage(p.ID, p.Name, "", KindJoin))
	return true
}

// RemovePlayer removes a player from the roster and from the turn order.
// No-op when the id is unknown.
func (s *Session) RemovePlayer(id string) {
	for i, p := range s.Players {
		if p.ID == id {
			s.AddMessage(NewMessage(p.ID, p.Name, "", KindLeave))
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			break
		}
	}
	for i, turnID := range s.TurnOrder {
		if turnID == id {
			if i < s.CurrentTurnIndex {
				s.CurrentTurnIndex--
			}
			s.TurnOrder = append(s.TurnOrder[:i], s.TurnOrder[i+1:]...)
			break
		}
	}
}

// Player returns the roster entry with the given id, or nil.
func (s *Session) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName returns the roster entry whose name matches case-insensitively,
// or nil.
func (s *Session) PlayerByName(name string) *Player {
	for _, p := range s.Players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (s *Session) AlivePlayers() []*Player {
	var alive []*Player
	for _, p := range s.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

func (s *Session) IsFull() bool {
	return len(s.Players) >= s.MaxPlayers
}

// StartGame assigns roles, shuffles the turn order and enters the word phase.
// It fails when the roster is too small.
func (s *Session) StartGame(secret string) bool {
	if len(s.Players) < MinPlayersToStart {
		return false
	}

	s.secretWord = secret
	s.Round = 1

	s.distributeRoles()
	s.initTurnOrder()
	s.Phase = PhaseWord
	s.CurrentTurnIndex = 0

	s.AddMessage(System(fmt.Sprintf("The game begins! Round %d", s.Round)))
	s.AddMessage(System(fmt.Sprintf("Each player has %ds to give a word.", WordTimeSeconds)))
	return true
}

// distributeRoles picks a uniform random subset of impostors: 1 below 6
// players, 2 below 10, 3 otherwise.
func (s *Session) distributeRoles() {
	impostors := 1
	switch n := len(s.Players); {
	case n >= 10:
		impostors = 3
	case n >= 6:
		impostors = 2
	}

	shuffled := make([]*Player, len(s.Players))
	copy(shuffled, s.Players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i, p := range shuffled {
		if i < impostors {
			p.Role = RoleImpostor
		} else {
			p.Role = RoleCitizen
		}
		p.Alive = true
		p.ResetForRound()
	}
}

func (s *Session) initTurnOrder() {
	alive := s.AlivePlayers()
	rand.Shuffle(len(alive), func(i, j int) {
		alive[i], alive[j] = alive[j], alive[i]
	})
	s.TurnOrder = make([]string, 0, len(alive))
	for _, p := range alive {
		s.TurnOrder = append(s.TurnOrder, p.ID)
	}
}

// SecretWord returns the citizens' word. Callers must never forward it to an
// impostor; use WordFor when addressing a specific player.
func (s *Session) SecretWord() string {
	return s.secretWord
}

// WordFor returns the word a player is allowed to see: the secret word for
// citizens, the empty string for impostors.
func (s *Session) WordFor(p *Player) string {
	if p.Role == RoleImpostor {
		return ""
	}
	return s.secretWord
}

// CurrentSpeakerID returns the id of the player whose turn it is, or the
// empty string when the round is over.
func (s *Session) CurrentSpeakerID() string {
	if s.CurrentTurnIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.CurrentTurnIndex]
}

// CurrentSpeaker returns the player whose turn it is, or nil.
func (s *Session) CurrentSpeaker() *Player {
	id := s.CurrentSpeakerID()
	if id == "" {
		return nil
	}
	return s.Player(id)
}

func (s *Session) IsPlayerTurn(id string) bool {
	current := s.CurrentSpeakerID()
	return current != "" && current == id
}

// SpeakWord records the word given by a player. Valid only during the word
// phase, only on the player's own turn, only once per round and only for
// living players.
func (s *Session) SpeakWord(id, word string) bool {
	if s.Phase != PhaseWord {
		return false
	}
	if !s.IsPlayerTurn(id) {
		return false
	}
	p := s.Player(id)
	if p == nil || !p.Alive {
		return false
	}
	if p.SpokenWord != "" {
		return false
	}

	p.SpokenWord = word
	s.AddMessage(Word(p, word))
	return true
}

// NextTurn advances to the next speaker and reports whether the round is
// complete. The caller decides what happens at the end of the round.
func (s *Session) NextTurn() bool {
	if s.CurrentTurnIndex < len(s.TurnOrder) {
		s.CurrentTurnIndex++
	}
	return s.CurrentTurnIndex >= len(s.TurnOrder)
}

// EveryoneSpoken reports whether the turn order has been exhausted.
func (s *Session) EveryoneSpoken() bool {
	return s.CurrentTurnIndex >= len(s.TurnOrder)
}

// StartDebate enters the debate phase.
func (s *Session) StartDebate() {
	s.Phase = PhaseDebate
	s.AddMessage(System(fmt.Sprintf("Debate phase! %d seconds.", DebateTimeSeconds)))
}

// StartVoting enters the voting phase and clears any previous vote state.
func (s *Session) StartVoting() {
	s.Phase = PhaseVoting
	s.Votes = make(map[string]int)
	for _, p := range s.AlivePlayers() {
		p.HasVoted = false
	}
	s.AddMessage(System(fmt.Sprintf("Voting phase! %d seconds.", VoteTimeSeconds)))
}

// Vote casts a vote from voter against target. It fails when either party is
// unknown or dead, when the voter already voted this phase, or outside the
// voting phase.
func (s *Session) Vote(voterID, targetID string) bool {
	if s.Phase != PhaseVoting {
		return false
	}
	voter := s.Player(voterID)
	target := s.Player(targetID)
	if voter == nil || target == nil || !voter.Alive || !target.Alive {
		return false
	}
	if voter.HasVoted {
		return false
	}

	voter.HasVoted = true
	voter.VotedFor = targetID
	s.Votes[targetID]++
	s.AddMessage(VoteCast(voter, target))
	return true
}

// EveryoneVoted reports whether every living player has voted.
func (s *Session) EveryoneVoted() bool {
	for _, p := range s.AlivePlayers() {
		if !p.HasVoted {
			return false
		}
	}
	return true
}

// ResolveVotes eliminates the unique player with the highest tally and enters
// the result phase. A tie or an empty ballot eliminates nobody and returns
// nil.
func (s *Session) ResolveVotes() *Player {
	if s.Phase == PhaseFinished {
		return nil
	}
	s.Phase = PhaseResult

	// Votes against a player who died mid-phase (a failed guess) count for
	// nothing; the dead cannot be eliminated twice.
	maxVotes := 0
	for id, count := range s.Votes {
		if p := s.Player(id); p == nil || !p.Alive {
			continue
		}
		if count > maxVotes {
			maxVotes = count
		}
	}
	if maxVotes == 0 {
		s.AddMessage(System("Nobody voted. No elimination."))
		return nil
	}

	var topVoted []string
	for id, count := range s.Votes {
		if count != maxVotes {
			continue
		}
		if p := s.Player(id); p == nil || !p.Alive {
			continue
		}
		topVoted = append(topVoted, id)
	}
	if len(topVoted) > 1 {
		s.AddMessage(System("The vote is tied! Nobody is eliminated."))
		return nil
	}

	eliminated := s.Player(topVoted[0])
	if eliminated == nil {
		return nil
	}
	eliminated.Alive = false
	s.AddMessage(Elimination(eliminated))
	return eliminated
}

// CheckWinCondition evaluates the alive counts and reports whether the game
// is over. Citizens win when no impostor is left; impostors win as soon as
// they match or outnumber the living citizens.
func (s *Session) CheckWinCondition() bool {
	if s.Phase == PhaseFinished {
		return true
	}

	aliveImpostors, aliveCitizens := 0, 0
	for _, p := range s.AlivePlayers() {
		if p.Role == RoleImpostor {
			aliveImpostors++
		} else {
			aliveCitizens++
		}
	}

	switch {
	case aliveImpostors == 0:
		s.Phase = PhaseFinished
		s.WinMessage = "Citizens win! All impostors have been eliminated!"
		s.AddMessage(Victory("Citizens", s.WinMessage))
		return true
	case aliveImpostors >= aliveCitizens:
		s.Phase = PhaseFinished
		s.WinMessage = "Impostors win! They now match the citizens!"
		s.AddMessage(Victory("Impostors", s.WinMessage))
		return true
	}
	return false
}

// NewRound resets the per-round player state, reshuffles the turn order and
// re-enters the word phase.
func (s *Session) NewRound() {
	s.Round++
	s.CurrentTurnIndex = 0

	for _, p := range s.AlivePlayers() {
		p.ResetForRound()
	}
	s.initTurnOrder()

	s.Phase = PhaseWord
	s.AddMessage(System(fmt.Sprintf("Round %d - new speaking order!", s.Round)))
}

// GuessWord lets a living impostor try the secret word. A correct guess ends
// the game with an impostor victory and returns true. A wrong guess
// eliminates the guesser, triggers an immediate win check and returns false,
// as do all precondition violations.
func (s *Session) GuessWord(id, guess string) bool {
	if s.Phase == PhaseFinished {
		return false
	}
	p := s.Player(id)
	if p == nil || p.Role != RoleImpostor || !p.Alive {
		return false
	}

	s.AddMessage(NewMessage(p.ID, p.Name, guess, KindGuess))

	if strings.EqualFold(guess, s.secretWord) {
		s.Phase = PhaseFinished
		s.WinMessage = fmt.Sprintf("Impostor victory! %s found the secret word: %q!", p.Name, s.secretWord)
		s.AddMessage(Victory("Impostor", s.WinMessage))
		return true
	}

	p.Alive = false
	s.AddMessage(System(fmt.Sprintf("Wrong answer! %s guessed %q but the word was %q. They are eliminated!", p.Name, guess, s.secretWord)))
	s.CheckWinCondition()
	return false
}

// AddMessage appends an entry to the session log, evicting the oldest
// entries beyond the cap.
func (s *Session) AddMessage(m Message) {
	s.Messages = append(s.Messages, m)
	if n := len(s.Messages) - maxMessages; n > 0 {
		s.Messages = append([]Message(nil), s.Messages[n:]...)
	}
}

// ChatAllowed reports whether free chat is open; the word phase is speech
// only through SpeakWord.
func (s *Session) ChatAllowed() bool {
	return s.Phase == PhaseDebate || s.Phase == PhaseVoting
}

// AddChatMessage appends a chat entry. Valid only while chat is allowed and
// for known players.
func (s *Session) AddChatMessage(id, content string) bool {
	if !s.ChatAllowed() {
		return false
	}
	p := s.Player(id)
	if p == nil {
		return false
	}
	s.AddMessage(NewMessage(p.ID, p.Name, content, KindChat))
	return true
}

// SetPlayers replaces the roster. Used by clients applying a roster snapshot
// pushed by the host.
func (s *Session) SetPlayers(players []*Player) {
	s.Players = players
}
