package undercover

import (
	"fmt"
	"strings"
	"testing"
)

func setupSession(numPlayers int) *Session {
	s := NewSession("test", "127.0.0.1", 5000, numPlayers)
	for i := 0; i < numPlayers; i++ {
		s.AddPlayer(NewPlayer(fmt.Sprintf("player%d", i), "127.0.0.1", 5100+i))
	}
	return s
}

// forceRoles makes the first player the only impostor so tests are
// deterministic regardless of the shuffled assignment.
func forceRoles(s *Session) (impostor *Player, citizens []*Player) {
	for i, p := range s.Players {
		if i == 0 {
			p.Role = RoleImpostor
			impostor = p
		} else {
			p.Role = RoleCitizen
			citizens = append(citizens, p)
		}
	}
	return impostor, citizens
}

func TestNewSession_InitialState(t *testing.T) {
	s := NewSession("friday night", "192.168.1.10", 5000, 8)
	if s.Phase != PhaseLobby {
		t.Errorf("expected initial phase %s, got %s", PhaseLobby, s.Phase)
	}
	if s.Round != 0 {
		t.Errorf("expected round 0, got %d", s.Round)
	}
	if len(s.ID) != 8 {
		t.Errorf("expected an 8-char session id, got %q", s.ID)
	}
}

func TestAddPlayer_CapacityAndDuplicates(t *testing.T) {
	s := NewSession("test", "127.0.0.1", 5000, 2)
	p1 := NewPlayer("alice", "127.0.0.1", 5100)
	p2 := NewPlayer("bob", "127.0.0.1", 5101)
	p3 := NewPlayer("carol", "127.0.0.1", 5102)

	if !s.AddPlayer(p1) || !s.AddPlayer(p2) {
		t.Fatal("expected first two joins to succeed")
	}
	if s.AddPlayer(p1) {
		t.Error("expected duplicate identity to be refused")
	}
	if s.AddPlayer(p3) {
		t.Error("expected join beyond capacity to be refused")
	}
	if len(s.Players) != 2 {
		t.Errorf("expected roster size 2, got %d", len(s.Players))
	}
	if s.Messages[len(s.Messages)-1].Kind != KindJoin {
		t.Error("expected a join entry in the session log")
	}
}

func TestRemovePlayer_AlsoLeavesTurnOrder(t *testing.T) {
	s := setupSession(4)
	s.StartGame("Pomme")
	removed := s.TurnOrder[2]
	s.RemovePlayer(removed)

	if s.Player(removed) != nil {
		t.Error("expected player to be gone from the roster")
	}
	for _, id := range s.TurnOrder {
		if id == removed {
			t.Error("expected player to be gone from the turn order")
		}
	}
	if len(s.TurnOrder) != 3 {
		t.Errorf("expected turn order of 3, got %d", len(s.TurnOrder))
	}
}

func TestStartGame_NotEnoughPlayers(t *testing.T) {
	s := setupSession(1)
	if s.StartGame("Pomme") {
		t.Error("expected start to fail with a single player")
	}
	if s.Phase != PhaseLobby {
		t.Errorf("expected phase to stay %s, got %s", PhaseLobby, s.Phase)
	}
}

func TestStartGame_RoleDistribution(t *testing.T) {
	cases := []struct {
		players   int
		impostors int
	}{
		{2, 1}, {5, 1}, {6, 2}, {9, 2}, {10, 3}, {12, 3},
	}
	for _, tc := range cases {
		s := setupSession(tc.players)
		if !s.StartGame("Pomme") {
			t.Fatalf("start failed for %d players", tc.players)
		}
		impostors := 0
		for _, p := range s.Players {
			switch p.Role {
			case RoleImpostor:
				impostors++
			case RoleCitizen:
			default:
				t.Errorf("player %s has no role", p.Name)
			}
			if !p.Alive {
				t.Errorf("player %s should start alive", p.Name)
			}
		}
		if impostors != tc.impostors {
			t.Errorf("%d players: expected %d impostors, got %d", tc.players, tc.impostors, impostors)
		}
	}
}

func TestStartGame_TurnOrderCoversAlivePlayers(t *testing.T) {
	s := setupSession(5)
	s.StartGame("Pomme")
	if len(s.TurnOrder) != 5 {
		t.Fatalf("expected 5 entries in turn order, got %d", len(s.TurnOrder))
	}
	seen := make(map[string]bool)
	for _, id := range s.TurnOrder {
		if s.Player(id) == nil {
			t.Errorf("turn order references unknown id %s", id)
		}
		if seen[id] {
			t.Errorf("turn order repeats id %s", id)
		}
		seen[id] = true
	}
	if s.CurrentTurnIndex != 0 {
		t.Errorf("expected turn index 0, got %d", s.CurrentTurnIndex)
	}
	if s.Round != 1 {
		t.Errorf("expected round 1, got %d", s.Round)
	}
}

func TestWordFor_HiddenFromImpostor(t *testing.T) {
	s := setupSession(3)
	s.StartGame("Pomme")
	impostor, citizens := forceRoles(s)
	if got := s.WordFor(impostor); got != "" {
		t.Errorf("impostor must not see the word, got %q", got)
	}
	if got := s.WordFor(citizens[0]); got != "Pomme" {
		t.Errorf("citizen should see the word, got %q", got)
	}
}

func TestSpeakWord_OnlyOnOwnTurn(t *testing.T) {
	s := setupSession(3)
	s.StartGame("Pomme")

	speaker := s.CurrentSpeakerID()
	var other string
	for _, p := range s.Players {
		if p.ID != speaker {
			other = p.ID
			break
		}
	}

	if s.SpeakWord(other, "fruit") {
		t.Error("expected speaking out of turn to fail")
	}
	if !s.SpeakWord(speaker, "fruit") {
		t.Error("expected the current speaker to succeed")
	}
	if s.SpeakWord(speaker, "again") {
		t.Error("expected a second word in the same round to fail")
	}
	if s.Player(speaker).SpokenWord != "fruit" {
		t.Errorf("expected spoken word to be recorded, got %q", s.Player(speaker).SpokenWord)
	}
}

func TestSpeakWord_WrongPhase(t *testing.T) {
	s := setupSession(3)
	s.StartGame("Pomme")
	s.StartDebate()
	if s.SpeakWord(s.TurnOrder[0], "fruit") {
		t.Error("expected speaking outside the word phase to fail")
	}
}

func TestNextTurn_RoundCompletion(t *testing.T) {
	s := setupSession(3)
	s.StartGame("Pomme")

	for i := 0; i < 2; i++ {
		if s.NextTurn() {
			t.Fatalf("round complete too early at turn %d", i)
		}
	}
	if !s.NextTurn() {
		t.Error("expected round to be complete after the last turn")
	}
	if !s.EveryoneSpoken() {
		t.Error("expected EveryoneSpoken after exhausting the order")
	}
	// Extra calls must not push the index past the order length.
	s.NextTurn()
	if s.CurrentTurnIndex > len(s.TurnOrder) {
		t.Errorf("turn index %d exceeds order length %d", s.CurrentTurnIndex, len(s.TurnOrder))
	}
}

func TestVote_Preconditions(t *testing.T) {
	s := setupSession(4)
	s.StartGame("Pomme")
	a, b := s.Players[0], s.Players[1]

	if s.Vote(a.ID, b.ID) {
		t.Error("expected voting outside the voting phase to fail")
	}
	s.StartVoting()
	if s.Vote("ghost", b.ID) {
		t.Error("expected a vote from an unknown player to fail")
	}
	if !s.Vote(a.ID, b.ID) {
		t.Error("expected a valid vote to succeed")
	}
	if s.Vote(a.ID, b.ID) {
		t.Error("expected a double vote to fail")
	}
	dead := s.Players[2]
	dead.Alive = false
	if s.Vote(dead.ID, b.ID) {
		t.Error("expected a vote from a dead player to fail")
	}
	if s.Vote(b.ID, dead.ID) {
		t.Error("expected a vote against a dead player to fail")
	}
	if s.Votes[b.ID] != 1 {
		t.Errorf("expected exactly one vote for %s, got %d", b.Name, s.Votes[b.ID])
	}
}

func TestResolveVotes_TieAndMajority(t *testing.T) {
	t.Run("tie eliminates nobody", func(t *testing.T) {
		s := setupSession(4)
		s.StartGame("Pomme")
		s.StartVoting()
		a, b, c, d := s.Players[0], s.Players[1], s.Players[2], s.Players[3]
		s.Vote(a.ID, b.ID)
		s.Vote(c.ID, b.ID)
		s.Vote(b.ID, a.ID)
		s.Vote(d.ID, a.ID)

		if eliminated := s.ResolveVotes(); eliminated != nil {
			t.Errorf("expected no elimination on a 2-2 tie, got %s", eliminated.Name)
		}
		if s.Phase != PhaseResult {
			t.Errorf("expected phase %s, got %s", PhaseResult, s.Phase)
		}
	})

	t.Run("unique majority is eliminated", func(t *testing.T) {
		s := setupSession(3)
		s.StartGame("Pomme")
		s.StartVoting()
		a, b, c := s.Players[0], s.Players[1], s.Players[2]
		s.Vote(b.ID, a.ID)
		s.Vote(c.ID, a.ID)
		s.Vote(a.ID, b.ID)

		eliminated := s.ResolveVotes()
		if eliminated == nil || eliminated.ID != a.ID {
			t.Fatalf("expected %s to be eliminated, got %v", a.Name, eliminated)
		}
		if a.Alive {
			t.Error("expected the eliminated player to be dead")
		}
	})

	t.Run("empty ballot eliminates nobody", func(t *testing.T) {
		s := setupSession(3)
		s.StartGame("Pomme")
		s.StartVoting()
		if eliminated := s.ResolveVotes(); eliminated != nil {
			t.Errorf("expected no elimination without votes, got %s", eliminated.Name)
		}
	})

	t.Run("target dead from a failed guess is not eliminated again", func(t *testing.T) {
		s := setupSession(5)
		s.StartGame("Pomme")
		for i, p := range s.Players {
			if i < 2 {
				p.Role = RoleImpostor
			} else {
				p.Role = RoleCitizen
			}
		}
		guesser := s.Players[0]
		s.StartDebate()
		s.StartVoting()
		s.Vote(s.Players[2].ID, guesser.ID)
		s.Vote(s.Players[3].ID, guesser.ID)

		if s.GuessWord(guesser.ID, "Poire") {
			t.Fatal("expected the wrong guess to fail")
		}
		if guesser.Alive {
			t.Fatal("expected the wrong guesser to be dead")
		}
		if s.Phase == PhaseFinished {
			t.Fatal("expected the game to continue with one impostor left")
		}

		if eliminated := s.ResolveVotes(); eliminated != nil {
			t.Errorf("expected votes against a dead player to resolve to nobody, got %s", eliminated.Name)
		}
		for _, m := range s.Messages {
			if m.Kind == KindElimination {
				t.Errorf("unexpected elimination announcement: %s", m.Content)
			}
		}
		if s.Phase != PhaseResult {
			t.Errorf("expected phase %s, got %s", PhaseResult, s.Phase)
		}
	})
}

func TestCheckWinCondition(t *testing.T) {
	t.Run("citizens win when impostors are extinct", func(t *testing.T) {
		s := setupSession(4)
		s.StartGame("Pomme")
		impostor, _ := forceRoles(s)
		impostor.Alive = false

		if !s.CheckWinCondition() {
			t.Fatal("expected the game to be over")
		}
		if s.Phase != PhaseFinished {
			t.Errorf("expected phase %s, got %s", PhaseFinished, s.Phase)
		}
		if !strings.Contains(s.WinMessage, "Citizens") {
			t.Errorf("expected a citizen victory, got %q", s.WinMessage)
		}
	})

	t.Run("impostors win when they match the citizens", func(t *testing.T) {
		s := setupSession(4)
		s.StartGame("Pomme")
		_, citizens := forceRoles(s)
		citizens[0].Alive = false
		citizens[1].Alive = false
		// 1 impostor vs 1 citizen: the literal >= rule ends the game.
		if !s.CheckWinCondition() {
			t.Fatal("expected the game to be over")
		}
		if !strings.Contains(s.WinMessage, "Impostors") {
			t.Errorf("expected an impostor victory, got %q", s.WinMessage)
		}
	})

	t.Run("game continues otherwise", func(t *testing.T) {
		s := setupSession(4)
		s.StartGame("Pomme")
		forceRoles(s)
		if s.CheckWinCondition() {
			t.Error("expected the game to continue with 1 impostor vs 3 citizens")
		}
		if s.Phase == PhaseFinished {
			t.Error("phase must not be finished")
		}
	})
}

func TestGuessWord(t *testing.T) {
	t.Run("correct guess ends the game immediately", func(t *testing.T) {
		s := setupSession(3)
		s.StartGame("Pomme")
		impostor, _ := forceRoles(s)

		if !s.GuessWord(impostor.ID, "pomme") {
			t.Fatal("expected a case-insensitive match to win")
		}
		if s.Phase != PhaseFinished {
			t.Errorf("expected phase %s, got %s", PhaseFinished, s.Phase)
		}
		if !impostor.Alive {
			t.Error("the winning impostor stays alive")
		}
	})

	t.Run("wrong guess eliminates the impostor and can end the game", func(t *testing.T) {
		s := setupSession(3)
		s.StartGame("Pomme")
		impostor, _ := forceRoles(s)

		if s.GuessWord(impostor.ID, "Poire") {
			t.Fatal("expected a wrong guess to fail")
		}
		if impostor.Alive {
			t.Error("expected the guesser to be eliminated")
		}
		if s.Phase != PhaseFinished {
			t.Error("expected the game to end: no impostor is left alive")
		}
		if !strings.Contains(s.WinMessage, "Citizens") {
			t.Errorf("expected a citizen victory, got %q", s.WinMessage)
		}
	})

	t.Run("citizens cannot guess", func(t *testing.T) {
		s := setupSession(3)
		s.StartGame("Pomme")
		_, citizens := forceRoles(s)
		alive := len(s.AlivePlayers())

		if s.GuessWord(citizens[0].ID, "Pomme") {
			t.Error("expected a citizen guess to be refused")
		}
		if len(s.AlivePlayers()) != alive {
			t.Error("a refused guess must not change liveness")
		}
	})
}

func TestFinished_IsTerminal(t *testing.T) {
	s := setupSession(3)
	s.StartGame("Pomme")
	impostor, citizens := forceRoles(s)
	s.GuessWord(impostor.ID, "Pomme")
	if s.Phase != PhaseFinished {
		t.Fatal("setup: game should be finished")
	}

	if s.Vote(citizens[0].ID, impostor.ID) {
		t.Error("expected votes to be refused after the game ended")
	}
	if s.GuessWord(impostor.ID, "anything") {
		t.Error("expected guesses to be refused after the game ended")
	}
	if s.ResolveVotes() != nil {
		t.Error("expected no elimination after the game ended")
	}
	for _, p := range s.Players {
		if p.ID != impostor.ID && !p.Alive {
			t.Error("liveness changed after the game ended")
		}
	}
}

func TestNewRound_ResetsRoundState(t *testing.T) {
	s := setupSession(4)
	s.StartGame("Pomme")
	speaker := s.CurrentSpeakerID()
	s.SpeakWord(speaker, "fruit")
	s.StartVoting()
	s.Vote(s.Players[0].ID, s.Players[1].ID)

	s.NewRound()

	if s.Round != 2 {
		t.Errorf("expected round 2, got %d", s.Round)
	}
	if s.Phase != PhaseWord {
		t.Errorf("expected phase %s, got %s", PhaseWord, s.Phase)
	}
	if s.CurrentTurnIndex != 0 {
		t.Errorf("expected turn index 0, got %d", s.CurrentTurnIndex)
	}
	for _, p := range s.AlivePlayers() {
		if p.SpokenWord != "" || p.HasVoted || p.VotedFor != "" {
			t.Errorf("player %s kept round state", p.Name)
		}
	}
}

func TestChat_OnlyDuringDebateAndVoting(t *testing.T) {
	s := setupSession(3)
	s.StartGame("Pomme")
	p := s.Players[0]

	if s.AddChatMessage(p.ID, "hello") {
		t.Error("expected chat to be closed during the word phase")
	}
	s.StartDebate()
	if !s.AddChatMessage(p.ID, "hello") {
		t.Error("expected chat to be open during the debate")
	}
	s.StartVoting()
	if !s.AddChatMessage(p.ID, "sus") {
		t.Error("expected chat to be open during the vote")
	}
	if s.AddChatMessage("ghost", "boo") {
		t.Error("expected chat from an unknown player to fail")
	}
}

func TestMessageLog_Capped(t *testing.T) {
	s := setupSession(2)
	for i := 0; i < 150; i++ {
		s.AddMessage(System(fmt.Sprintf("event %d", i)))
	}
	if len(s.Messages) != 100 {
		t.Fatalf("expected the log to be capped at 100, got %d", len(s.Messages))
	}
	if s.Messages[0].Content != "event 50" {
		t.Errorf("expected the oldest entries to be evicted first, got %q", s.Messages[0].Content)
	}
	if s.Messages[99].Content != "event 149" {
		t.Errorf("expected the newest entry to be kept, got %q", s.Messages[99].Content)
	}
}
