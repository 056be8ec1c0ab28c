package application

import (
	"fmt"
	"time"

	"github.com/Kanty753/projet-reseau/domain/undercover"
	"github.com/Kanty753/projet-reseau/network"
)

// Timer resync cadence in seconds, per phase. Lost TIMER_SYNC datagrams are
// tolerated; clients simply drift until the next one.
const (
	wordResyncSeconds   = 5
	debateResyncSeconds = 10
	voteResyncSeconds   = 5
)

// startSpeakerTurn opens the current speaker's slot: a TURN_START broadcast
// and the per-turn countdown. An exhausted turn order ends the round instead.
func (c *Controller) startSpeakerTurn() {
	c.mu.Lock()
	if c.session == nil || c.session.Phase != undercover.PhaseWord {
		c.mu.Unlock()
		return
	}
	speaker := c.session.CurrentSpeaker()
	if speaker == nil {
		c.mu.Unlock()
		c.endRound()
		return
	}
	msg := network.Message{
		Type:             network.TypeTurnStart,
		CurrentPlayerID:  speaker.ID,
		PlayerName:       speaker.Name,
		RemainingSeconds: undercover.WordTimeSeconds,
		CurrentTurnIndex: c.session.CurrentTurnIndex,
		TurnOrder:        append([]string(nil), c.session.TurnOrder...),
		Timestamp:        time.Now().UnixMilli(),
	}
	speakerID := speaker.ID
	c.mu.Unlock()

	c.logger.Info("turn started", "speaker", msg.PlayerName)
	c.broadcastToAll(msg)
	c.notifyTurnChanged(speakerID, undercover.WordTimeSeconds, msg.TurnOrder)

	c.startCountdown(undercover.WordTimeSeconds, wordResyncSeconds,
		func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.session == nil || !c.session.IsPlayerTurn(speakerID)
		},
		func() { c.speakerTimeout(speakerID) })
}

// speakerTimeout fires when a speaker let their slot expire without a word.
func (c *Controller) speakerTimeout(speakerID string) {
	c.mu.Lock()
	if c.session == nil || !c.session.IsPlayerTurn(speakerID) {
		c.mu.Unlock()
		return
	}
	speaker := c.session.Player(speakerID)
	name := speakerID
	if speaker != nil {
		name = speaker.Name
	}
	text := fmt.Sprintf("%s ran out of time!", name)
	c.session.AddMessage(undercover.System(text))
	c.mu.Unlock()

	c.logger.Info("turn timed out", "speaker", name)
	c.broadcastToAll(network.Message{
		Type:      network.TypeTurnTimeout,
		PlayerID:  speakerID,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	c.notifyMessage(undercover.System(text))
	c.advanceTurn()
}

// advanceTurn moves to the next speaker, or into debate when the order is
// exhausted.
func (c *Controller) advanceTurn() {
	c.stopCountdown()
	c.mu.Lock()
	if c.session == nil || c.session.Phase != undercover.PhaseWord {
		c.mu.Unlock()
		return
	}
	done := c.session.NextTurn()
	c.mu.Unlock()

	if done {
		c.endRound()
	} else {
		c.startSpeakerTurn()
	}
}

// endRound closes the word phase and opens the debate.
func (c *Controller) endRound() {
	c.stopCountdown()
	c.mu.Lock()
	if c.session == nil || c.session.Phase != undercover.PhaseWord {
		c.mu.Unlock()
		return
	}
	c.session.StartDebate()
	text := fmt.Sprintf("Everyone has spoken. Debate for %d seconds!", undercover.DebateTimeSeconds)
	c.mu.Unlock()

	c.logger.Info("debate phase started")
	c.broadcastToAll(network.Message{
		Type:             network.TypeRoundEnd,
		Text:             text,
		RemainingSeconds: undercover.DebateTimeSeconds,
		Timestamp:        time.Now().UnixMilli(),
	})
	c.notifyMessage(undercover.System(text))
	c.notifyPhaseChanged(undercover.PhaseDebate)
	c.notifyTimerSync(undercover.DebateTimeSeconds)

	c.startCountdown(undercover.DebateTimeSeconds, debateResyncSeconds, nil, c.startVotingPhase)
}

// startVotingPhase opens the ballot.
func (c *Controller) startVotingPhase() {
	c.mu.Lock()
	if c.session == nil || c.session.Phase != undercover.PhaseDebate {
		c.mu.Unlock()
		return
	}
	c.session.StartVoting()
	c.mu.Unlock()

	c.logger.Info("voting phase started")
	c.broadcastToAll(network.Message{
		Type:             network.TypePhaseChange,
		Phase:            string(undercover.PhaseVoting),
		Text:             fmt.Sprintf("Vote now! %d seconds.", undercover.VoteTimeSeconds),
		RemainingSeconds: undercover.VoteTimeSeconds,
		Timestamp:        time.Now().UnixMilli(),
	})
	c.notifyPhaseChanged(undercover.PhaseVoting)
	c.notifyTimerSync(undercover.VoteTimeSeconds)
	c.notifyPlayersUpdated()

	c.startCountdown(undercover.VoteTimeSeconds, voteResyncSeconds,
		func() bool {
			// Resolve, not just stop, when the ballot completed between ticks.
			c.maybeFinishVoting()
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.session == nil || c.session.Phase != undercover.PhaseVoting
		},
		c.resolveVotesAndContinue)
}

// maybeFinishVoting short-circuits the vote countdown once every living
// player has voted.
func (c *Controller) maybeFinishVoting() {
	c.mu.Lock()
	ready := c.session != nil && c.session.Phase == undercover.PhaseVoting && c.session.EveryoneVoted()
	c.mu.Unlock()
	if ready {
		c.resolveVotesAndContinue()
	}
}

// resolveVotesAndContinue tallies the ballot, announces the result and either
// ends the game or schedules the next round after a short grace. The phase
// guard makes it idempotent against the countdown's check and expire paths
// both firing.
func (c *Controller) resolveVotesAndContinue() {
	c.stopCountdown()
	c.mu.Lock()
	if c.session == nil || c.session.Phase != undercover.PhaseVoting {
		c.mu.Unlock()
		return
	}
	eliminated := c.session.ResolveVotes()
	text := "The vote is tied! Nobody is eliminated."
	if eliminated != nil {
		text = fmt.Sprintf("%s has been eliminated! (was %s)", eliminated.Name, eliminated.Role.Display())
	}
	finished := c.session.CheckWinCondition()
	var winMsg string
	if finished {
		winMsg = c.session.WinMessage
	}
	c.mu.Unlock()

	c.logger.Info("votes resolved", "eliminated", eliminated != nil)
	c.broadcastPlayerList()
	c.broadcastPhaseChange(undercover.PhaseResult, text)
	c.notifyPlayersUpdated()
	c.notifyMessage(undercover.System(text))
	c.notifyPhaseChanged(undercover.PhaseResult)

	if finished {
		c.finishGame(winMsg)
		return
	}
	// Grace so everyone reads the verdict before the next round begins.
	c.schedule(3*time.Second, c.beginNextRound)
}

func (c *Controller) beginNextRound() {
	c.mu.Lock()
	if c.session == nil || c.session.Phase != undercover.PhaseResult {
		c.mu.Unlock()
		return
	}
	c.session.NewRound()
	round := c.session.Round
	c.mu.Unlock()

	c.logger.Info("new round", "round", round)
	c.broadcastPlayerList()
	c.broadcastPhaseChange(undercover.PhaseWord, fmt.Sprintf("Round %d - new speaking order!", round))
	c.notifyPhaseChanged(undercover.PhaseWord)
	c.notifyPlayersUpdated()
	c.startSpeakerTurn()
}

// applyGuess runs an impostor's guess on the authoritative session. A correct
// guess ends the game immediately; a wrong one may too, via its win check.
func (c *Controller) applyGuess(playerID, guess string) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	p := c.session.Player(playerID)
	name := playerID
	if p != nil {
		name = p.Name
	}
	c.session.GuessWord(playerID, guess)
	finished := c.session.Phase == undercover.PhaseFinished
	var winMsg string
	if finished {
		winMsg = c.session.WinMessage
	}
	c.mu.Unlock()

	c.logger.Info("guess received", "player", name, "guess", guess, "finished", finished)
	c.notifyMessage(undercover.NewMessage(playerID, name, guess, undercover.KindGuess))
	c.broadcastPlayerList()
	c.notifyPlayersUpdated()

	if finished {
		c.finishGame(winMsg)
	}
}

// finishGame broadcasts the verdict and stops all timers. The session stays
// readable so the final screen can render the outcome.
func (c *Controller) finishGame(winMsg string) {
	c.stopCountdown()
	c.mu.Lock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.mu.Unlock()

	c.logger.Info("game over", "result", winMsg)
	c.broadcastToAll(network.Message{
		Type:      network.TypeGameEnd,
		Text:      winMsg,
		Timestamp: time.Now().UnixMilli(),
	})
	c.notifyMessage(undercover.Victory("System", winMsg))
	c.notifyPhaseChanged(undercover.PhaseFinished)
	c.notifyGameEnded(winMsg)
}

// broadcastToAll sends one datagram to every remote player. The local player
// is informed through the listener callbacks instead of the network.
func (c *Controller) broadcastToAll(msg network.Message) {
	c.broadcastExcept(msg, "")
}

// broadcastExcept sends to every remote player but the excluded one,
// typically the originator of a relayed event.
func (c *Controller) broadcastExcept(msg network.Message, exceptID string) {
	c.mu.Lock()
	if c.session == nil || c.local == nil {
		c.mu.Unlock()
		return
	}
	var targets []string
	for _, p := range c.session.Players {
		if p.ID == c.local.ID || p.ID == exceptID {
			continue
		}
		targets = append(targets, p.UDPAddr())
	}
	c.mu.Unlock()

	for _, addr := range targets {
		c.transport.Send(addr, msg)
	}
}

func (c *Controller) broadcastPlayerList() {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	msg := network.Message{
		Type:      network.TypePlayerList,
		Players:   rosterLocked(c.session),
		Timestamp: time.Now().UnixMilli(),
	}
	c.mu.Unlock()

	c.broadcastToAll(msg)
}

func (c *Controller) broadcastPhaseChange(phase undercover.Phase, text string) {
	c.broadcastToAll(network.Message{
		Type:      network.TypePhaseChange,
		Phase:     string(phase),
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *Controller) broadcastTimerSync(remaining int) {
	c.broadcastToAll(network.Message{
		Type:             network.TypeTimerSync,
		RemainingSeconds: remaining,
		Timestamp:        time.Now().UnixMilli(),
	})
	c.notifyTimerSync(remaining)
}

func (c *Controller) sendToHost(msg network.Message) {
	c.mu.Lock()
	addr := fmt.Sprintf("%s:%d", c.hostIP, c.hostUDPPort)
	c.mu.Unlock()
	c.transport.Send(addr, msg)
}

// rosterLocked builds the wire roster snapshot. Callers must hold c.mu.
func rosterLocked(s *undercover.Session) []network.PlayerInfo {
	roster := make([]network.PlayerInfo, 0, len(s.Players))
	for _, p := range s.Players {
		roster = append(roster, network.PlayerInfo{
			ID:       p.ID,
			Name:     p.Name,
			IP:       p.IP,
			Port:     p.Port,
			UDPPort:  p.UDPPort,
			IsHost:   p.IsHost,
			Alive:    p.Alive,
			HasVoted: p.HasVoted,
		})
	}
	return roster
}
