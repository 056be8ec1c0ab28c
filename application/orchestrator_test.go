package application

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kanty753/projet-reseau/domain/undercover"
	"github.com/Kanty753/projet-reseau/network"
)

// hostFixture builds a host controller with an in-game session of n players.
// The remote players point at unreachable addresses; sends to them are
// fire-and-forget so the orchestrator never notices.
func hostFixture(t *testing.T, n int) (*Controller, *undercover.Session) {
	t.Helper()
	transport, err := network.NewTransport("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { transport.Close() })

	session := undercover.NewSession("table", "127.0.0.1", 6400, 12)
	for i := 0; i < n; i++ {
		p := undercover.NewPlayer(string(rune('A'+i)), "127.0.0.1", 1)
		require.True(t, session.AddPlayer(p))
	}
	require.True(t, session.StartGame("Pomme"))

	c := NewController(slog.Default())
	c.transport = transport
	c.session = session
	c.local = session.Players[0]
	c.local.IsHost = true
	c.isHost = true
	return c, session
}

func TestVotingResolvesEarlyWhenEveryoneVoted(t *testing.T) {
	c, session := hostFixture(t, 3)
	defer c.Shutdown()

	// Pin the roles so the ballot outcome is deterministic.
	for _, p := range session.Players {
		p.Role = undercover.RoleCitizen
	}
	impostor := session.Players[2]
	impostor.Role = undercover.RoleImpostor

	session.StartDebate()
	session.StartVoting()
	for _, p := range session.Players {
		require.True(t, session.Vote(p.ID, impostor.ID))
	}

	c.maybeFinishVoting()

	assert.Equal(t, undercover.PhaseFinished, session.Phase)
	assert.False(t, impostor.Alive)
	assert.Contains(t, session.WinMessage, "Citizens win")
}

func TestTiedVoteSchedulesNextRound(t *testing.T) {
	c, session := hostFixture(t, 4)
	defer c.Shutdown()

	for _, p := range session.Players {
		p.Role = undercover.RoleCitizen
	}
	session.Players[3].Role = undercover.RoleImpostor

	session.StartDebate()
	session.StartVoting()
	require.True(t, session.Vote(session.Players[0].ID, session.Players[1].ID))
	require.True(t, session.Vote(session.Players[1].ID, session.Players[0].ID))
	require.True(t, session.Vote(session.Players[2].ID, session.Players[3].ID))
	require.True(t, session.Vote(session.Players[3].ID, session.Players[2].ID))

	c.resolveVotesAndContinue()

	c.mu.Lock()
	phase := session.Phase
	c.mu.Unlock()
	assert.Equal(t, undercover.PhaseResult, phase)
	for _, p := range session.Players {
		assert.True(t, p.Alive)
	}

	// The next round starts after the result grace.
	deadline := time.Now().Add(6 * time.Second)
	for {
		c.mu.Lock()
		phase, round := session.Phase, session.Round
		c.mu.Unlock()
		if phase == undercover.PhaseWord {
			assert.Equal(t, 2, round)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("still in phase %s after grace", phase)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestResolveVotesIsIdempotent(t *testing.T) {
	c, session := hostFixture(t, 3)
	defer c.Shutdown()

	for _, p := range session.Players {
		p.Role = undercover.RoleCitizen
	}
	session.Players[2].Role = undercover.RoleImpostor

	session.StartDebate()
	session.StartVoting()
	require.True(t, session.Vote(session.Players[0].ID, session.Players[2].ID))
	require.True(t, session.Vote(session.Players[1].ID, session.Players[2].ID))
	require.True(t, session.Vote(session.Players[2].ID, session.Players[0].ID))

	c.resolveVotesAndContinue()
	winMsg := session.WinMessage
	c.resolveVotesAndContinue()

	assert.Equal(t, undercover.PhaseFinished, session.Phase)
	assert.Equal(t, winMsg, session.WinMessage)
}

func TestDropLastNonVoterResolvesBallot(t *testing.T) {
	c, session := hostFixture(t, 4)
	defer c.Shutdown()

	for _, p := range session.Players {
		p.Role = undercover.RoleCitizen
	}
	impostor := session.Players[3]
	impostor.Role = undercover.RoleImpostor

	session.StartDebate()
	c.startVotingPhase()

	c.mu.Lock()
	require.True(t, session.Vote(session.Players[0].ID, impostor.ID))
	require.True(t, session.Vote(session.Players[2].ID, impostor.ID))
	require.True(t, session.Vote(impostor.ID, session.Players[0].ID))
	c.mu.Unlock()

	// Players[1] never votes; their eviction completes the ballot.
	c.dropPlayer(session.Players[1].ID, "connection timed out")

	c.mu.Lock()
	phase := session.Phase
	c.mu.Unlock()
	assert.Equal(t, undercover.PhaseFinished, phase)
	assert.False(t, impostor.Alive)
	assert.Contains(t, session.WinMessage, "Citizens win")
}

func TestDropCurrentSpeakerDoesNotSkipNext(t *testing.T) {
	c, session := hostFixture(t, 4)
	defer c.Shutdown()

	for _, p := range session.Players {
		p.Role = undercover.RoleCitizen
	}
	session.Player(session.TurnOrder[3]).Role = undercover.RoleImpostor

	speaker := session.TurnOrder[0]
	expectedNext := session.TurnOrder[1]
	c.dropPlayer(speaker, "left the session")

	c.mu.Lock()
	current := session.CurrentSpeakerID()
	index := session.CurrentTurnIndex
	phase := session.Phase
	c.mu.Unlock()
	assert.Equal(t, undercover.PhaseWord, phase)
	assert.Equal(t, expectedNext, current)
	assert.Equal(t, 0, index)
}

func TestDropPlayerMidGameReevaluatesWin(t *testing.T) {
	c, session := hostFixture(t, 3)
	defer c.Shutdown()

	for _, p := range session.Players {
		p.Role = undercover.RoleImpostor
	}
	citizen := session.Players[0]
	citizen.Role = undercover.RoleCitizen
	session.StartDebate()

	c.dropPlayer(citizen.ID, "left the session")

	assert.Equal(t, undercover.PhaseFinished, session.Phase)
	assert.Contains(t, session.WinMessage, "Impostors win")
}
