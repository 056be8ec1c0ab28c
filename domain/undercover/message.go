package undercover

import (
	"fmt"
	"time"
)

// MessageKind classifies an entry of the session log.
type MessageKind string

const (
	KindChat        MessageKind = "CHAT"
	KindSystem      MessageKind = "SYSTEM"
	KindWord        MessageKind = "WORD"
	KindVote        MessageKind = "VOTE"
	KindElimination MessageKind = "ELIMINATION"
	KindVictory     MessageKind = "VICTORY"
	KindGuess       MessageKind = "GUESS"
	KindJoin        MessageKind = "JOIN"
	KindLeave       MessageKind = "LEAVE"
)

// Message is one entry of the session log: chat, spoken word or system event.
type Message struct {
	SenderID   string
	SenderName string
	Content    string
	Kind       MessageKind
	Time       time.Time
}

func NewMessage(senderID, senderName, content string, kind MessageKind) Message {
	return Message{
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Kind:       kind,
		Time:       time.Now(),
	}
}

// System creates a log entry not attributed to any player.
func System(content string) Message {
	return NewMessage("SYSTEM", "System", content, KindSystem)
}

// Word creates the log entry for a word spoken during the word phase.
func Word(p *Player, word string) Message {
	return NewMessage(p.ID, p.Name, word, KindWord)
}

// VoteCast creates the log entry for one cast vote.
func VoteCast(voter, target *Player) Message {
	content := fmt.Sprintf("%s voted against %s", voter.Name, target.Name)
	return NewMessage(voter.ID, voter.Name, content, KindVote)
}

// Elimination creates the log entry announcing an eliminated player and
// revealing their role.
func Elimination(p *Player) Message {
	content := fmt.Sprintf("%s has been eliminated! (was %s)", p.Name, p.Role.Display())
	return NewMessage("SYSTEM", "System", content, KindElimination)
}

// Victory creates the log entry announcing the winning camp.
func Victory(team, content string) Message {
	return NewMessage("SYSTEM", team, content, KindVictory)
}

func (m Message) FormattedTime() string {
	return m.Time.Format("15:04:05")
}

// DisplayText renders the entry for the UI.
func (m Message) DisplayText() string {
	switch m.Kind {
	case KindChat:
		return fmt.Sprintf("[%s] %s: %s", m.FormattedTime(), m.SenderName, m.Content)
	case KindWord:
		return fmt.Sprintf("%s says: %s", m.SenderName, m.Content)
	case KindGuess:
		return fmt.Sprintf("%s tries to guess: %s", m.SenderName, m.Content)
	case KindJoin:
		return fmt.Sprintf("%s joined the game", m.SenderName)
	case KindLeave:
		return fmt.Sprintf("%s left the game", m.SenderName)
	}
	return m.Content
}
