package application

import (
	"fmt"
	"net"
	"time"

	"github.com/Kanty753/projet-reseau/discovery"
	"github.com/Kanty753/projet-reseau/domain/undercover"
	"github.com/Kanty753/projet-reseau/network"
)

// Keep-alive budget: the host pings every pingInterval and evicts a player
// after silenceTimeout without any inbound traffic from them.
const (
	pingInterval   = 10 * time.Second
	silenceTimeout = 30 * time.Second
)

// startReceiving wires the transport into the router. Every inbound message
// also refreshes the sender's liveness mark before dispatch.
func (c *Controller) startReceiving() {
	c.transport.Start(func(msg network.Message, from *net.UDPAddr) {
		c.touch(msg)
		c.router.Dispatch(msg, from)
	})
}

func (c *Controller) touch(msg network.Message) {
	id := msg.PlayerID
	if id == "" {
		id = msg.VoterID
	}
	if id == "" {
		return
	}
	c.mu.Lock()
	c.lastSeen[id] = time.Now()
	c.mu.Unlock()
}

// handleJoinRequest answers one reliable-channel join. Joins are only
// accepted in the lobby, and names must be unique within the session.
func (c *Controller) handleJoinRequest(req network.Message) network.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	reject := func(reason string) network.Message {
		c.logger.Info("join rejected", "player", req.PlayerName, "reason", reason)
		return network.Message{Type: network.TypeJoinRejected, Success: false, Reason: reason}
	}

	if c.session == nil {
		return reject("session not ready")
	}
	if c.session.Phase != undercover.PhaseLobby {
		return reject("game already started")
	}
	if c.session.IsFull() {
		return reject("session is full")
	}
	if req.PlayerName == "" || c.session.PlayerByName(req.PlayerName) != nil {
		return reject("name already in use")
	}

	udpPort := req.PlayerUDPPort
	if udpPort == 0 {
		udpPort = req.PlayerPort + undercover.UDPPortOffset
	}
	p := undercover.RestorePlayer(req.PlayerID, req.PlayerName, req.PlayerIP, req.PlayerPort, udpPort)
	if p.ID == "" {
		p = undercover.NewPlayer(req.PlayerName, req.PlayerIP, req.PlayerPort)
		p.UDPPort = udpPort
	}
	if !c.session.AddPlayer(p) {
		return reject("session is full")
	}
	p.IsReady = true
	c.lastSeen[p.ID] = time.Now()
	c.logger.Info("player joined", "player", p.Name, "id", p.ID, "addr", p.UDPAddr())

	resp := network.Message{
		Type:        network.TypeJoinAccepted,
		Success:     true,
		PlayerID:    p.ID,
		SessionID:   c.session.ID,
		SessionName: c.session.Name,
		HostIP:      c.hostIP,
		HostUDPPort: c.hostUDPPort,
		Players:     rosterLocked(c.session),
	}

	go func() {
		c.broadcastPlayerList()
		c.refreshAnnouncement()
		c.notifyPlayersUpdated()
	}()
	return resp
}

// registerHostHandlers installs the authoritative message handlers. Client
// events are validated against the session, applied, then relayed to the
// other peers with the originator excluded.
func (c *Controller) registerHostHandlers() {
	c.router.Handle(network.TypeWordSpoken, c.hostWordSpoken)
	c.router.Handle(network.TypeChat, c.hostChat)
	c.router.Handle(network.TypeVote, c.hostVote)
	c.router.Handle(network.TypeGuess, c.hostGuess)
	c.router.Handle(network.TypeLeave, c.hostLeave)
	c.router.Handle(network.TypePong, func(network.Message, *net.UDPAddr) {})
}

func (c *Controller) hostWordSpoken(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	if c.session == nil || !c.session.SpeakWord(msg.PlayerID, msg.Word) {
		c.mu.Unlock()
		return
	}
	echo := c.session.Messages[len(c.session.Messages)-1]
	c.mu.Unlock()

	c.notifyMessage(echo)
	c.broadcastExcept(msg, msg.PlayerID)
	c.advanceTurn()
}

func (c *Controller) hostChat(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	if c.session == nil || !c.session.AddChatMessage(msg.PlayerID, msg.Text) {
		c.mu.Unlock()
		return
	}
	echo := c.session.Messages[len(c.session.Messages)-1]
	c.mu.Unlock()

	c.notifyMessage(echo)
	c.broadcastExcept(msg, msg.PlayerID)
}

func (c *Controller) hostVote(msg network.Message, _ *net.UDPAddr) {
	voterID := msg.VoterID
	if voterID == "" {
		voterID = msg.PlayerID
	}
	c.mu.Lock()
	if c.session == nil || !c.session.Vote(voterID, msg.TargetID) {
		c.mu.Unlock()
		return
	}
	echo := c.session.Messages[len(c.session.Messages)-1]
	c.mu.Unlock()

	c.notifyMessage(echo)
	c.broadcastPlayerList()
	c.notifyPlayersUpdated()
	c.maybeFinishVoting()
}

func (c *Controller) hostGuess(msg network.Message, _ *net.UDPAddr) {
	c.applyGuess(msg.PlayerID, msg.Guess)
}

func (c *Controller) hostLeave(msg network.Message, _ *net.UDPAddr) {
	c.dropPlayer(msg.PlayerID, "left the session")
}

// dropPlayer removes a player on explicit leave or silence eviction, then
// republishes the roster. During a running game a departure can decide the
// win condition, so it is re-evaluated.
func (c *Controller) dropPlayer(id, cause string) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	p := c.session.Player(id)
	if p == nil {
		c.mu.Unlock()
		return
	}
	name := p.Name
	wasSpeaking := c.session.Phase == undercover.PhaseWord && c.session.IsPlayerTurn(id)
	c.session.RemovePlayer(id)
	delete(c.lastSeen, id)
	wasVoting := c.session.Phase == undercover.PhaseVoting
	inGame := c.session.Phase != undercover.PhaseLobby && c.session.Phase != undercover.PhaseFinished
	finished := inGame && c.session.CheckWinCondition()
	var winMsg string
	if finished {
		winMsg = c.session.WinMessage
	}
	c.mu.Unlock()

	c.logger.Info("player removed", "player", name, "cause", cause)
	c.broadcastPlayerList()
	c.refreshAnnouncement()
	c.notifyPlayersUpdated()

	if finished {
		c.finishGame(winMsg)
		return
	}
	if wasSpeaking {
		// RemovePlayer already pulled the slot from under the turn index, so
		// the next speaker is in place; advancing again would skip them.
		c.stopCountdown()
		c.startSpeakerTurn()
		return
	}
	if wasVoting {
		// The departed player may have been the last missing ballot.
		c.maybeFinishVoting()
	}
}

// registerClientHandlers installs the projection handlers that rebuild the
// local read model from the host's broadcasts.
func (c *Controller) registerClientHandlers() {
	c.router.Handle(network.TypePlayerList, c.clientPlayerList)
	c.router.Handle(network.TypeGameStart, c.clientGameStart)
	c.router.Handle(network.TypePhaseChange, c.clientPhaseChange)
	c.router.Handle(network.TypeTurnStart, c.clientTurnStart)
	c.router.Handle(network.TypeTimerSync, c.clientTimerSync)
	c.router.Handle(network.TypeTurnTimeout, c.clientTurnTimeout)
	c.router.Handle(network.TypeRoundEnd, c.clientRoundEnd)
	c.router.Handle(network.TypeWordSpoken, c.clientWordSpoken)
	c.router.Handle(network.TypeChat, c.clientChat)
	c.router.Handle(network.TypeGameEnd, c.clientGameEnd)
	c.router.Handle(network.TypePing, c.clientPing)
}

func (c *Controller) clientPlayerList(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	players := make([]*undercover.Player, 0, len(msg.Players))
	for _, info := range msg.Players {
		p := undercover.RestorePlayer(info.ID, info.Name, info.IP, info.Port, info.UDPPort)
		p.IsHost = info.IsHost
		p.Alive = info.Alive
		p.HasVoted = info.HasVoted
		if c.local != nil && info.ID == c.local.ID {
			// Keep the richer local state; liveness comes from the host and
			// the optimistic vote mark is never un-set by a stale roster.
			c.local.Alive = info.Alive
			c.local.HasVoted = c.local.HasVoted || info.HasVoted
			p = c.local
		}
		players = append(players, p)
	}
	c.session.SetPlayers(players)
	c.mu.Unlock()

	c.notifyPlayersUpdated()
}

func (c *Controller) clientGameStart(msg network.Message, _ *net.UDPAddr) {
	role := undercover.Role(msg.Role)
	c.mu.Lock()
	if c.session == nil || c.local == nil {
		c.mu.Unlock()
		return
	}
	c.local.Role = role
	c.myWord = msg.Word
	c.session.Phase = undercover.PhaseWord
	c.session.Round = 1
	c.mu.Unlock()

	c.logger.Info("game started", "role", role)
	c.notifyGameStarted(role, msg.Word)
}

func (c *Controller) clientPhaseChange(msg network.Message, _ *net.UDPAddr) {
	phase := undercover.Phase(msg.Phase)
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.Phase = phase
	if phase == undercover.PhaseVoting {
		for _, p := range c.session.AlivePlayers() {
			p.HasVoted = false
		}
		if c.local != nil {
			c.local.HasVoted = false
			c.local.VotedFor = ""
		}
	}
	c.mu.Unlock()

	if msg.Text != "" {
		c.notifyMessage(undercover.System(msg.Text))
	}
	c.notifyPhaseChanged(phase)
	if msg.RemainingSeconds > 0 {
		c.notifyTimerSync(msg.RemainingSeconds)
	}
}

func (c *Controller) clientTurnStart(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.Phase = undercover.PhaseWord
	if len(msg.TurnOrder) > 0 {
		c.session.TurnOrder = msg.TurnOrder
	}
	c.session.CurrentTurnIndex = msg.CurrentTurnIndex
	c.mu.Unlock()

	c.notifyTurnChanged(msg.CurrentPlayerID, msg.RemainingSeconds, msg.TurnOrder)
}

func (c *Controller) clientTimerSync(msg network.Message, _ *net.UDPAddr) {
	c.notifyTimerSync(msg.RemainingSeconds)
}

func (c *Controller) clientTurnTimeout(msg network.Message, _ *net.UDPAddr) {
	if msg.Text != "" {
		c.notifyMessage(undercover.System(msg.Text))
	}
}

func (c *Controller) clientRoundEnd(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	if c.session != nil {
		c.session.Phase = undercover.PhaseDebate
	}
	c.mu.Unlock()

	if msg.Text != "" {
		c.notifyMessage(undercover.System(msg.Text))
	}
	c.notifyPhaseChanged(undercover.PhaseDebate)
	if msg.RemainingSeconds > 0 {
		c.notifyTimerSync(msg.RemainingSeconds)
	}
}

func (c *Controller) clientWordSpoken(msg network.Message, _ *net.UDPAddr) {
	c.notifyMessage(undercover.NewMessage(msg.PlayerID, msg.PlayerName, msg.Word, undercover.KindWord))
}

func (c *Controller) clientChat(msg network.Message, _ *net.UDPAddr) {
	c.notifyMessage(undercover.NewMessage(msg.PlayerID, msg.PlayerName, msg.Text, undercover.KindChat))
}

func (c *Controller) clientGameEnd(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	if c.session != nil {
		c.session.Phase = undercover.PhaseFinished
		c.session.WinMessage = msg.Text
	}
	c.mu.Unlock()

	c.notifyPhaseChanged(undercover.PhaseFinished)
	c.notifyGameEnded(msg.Text)
}

// clientPing answers the host's keep-alive so silence eviction only fires on
// genuinely gone peers.
func (c *Controller) clientPing(msg network.Message, _ *net.UDPAddr) {
	c.mu.Lock()
	local := c.local
	c.mu.Unlock()
	if local == nil {
		return
	}
	// A ping without a reply path gets no pong.
	if msg.SenderIP == "" || msg.SenderUDPPort == 0 {
		return
	}
	c.transport.Send(fmt.Sprintf("%s:%d", msg.SenderIP, msg.SenderUDPPort), network.Message{
		Type:      network.TypePong,
		PlayerID:  local.ID,
		Timestamp: time.Now().UnixMilli(),
	})
}

// startLivenessLoop runs the host-side keep-alive: ping every remote player
// periodically and evict anyone silent beyond the timeout.
func (c *Controller) startLivenessLoop() {
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.closed:
				return
			case <-ticker.C:
				c.pingAndEvict()
			}
		}
	}()
}

func (c *Controller) pingAndEvict() {
	c.mu.Lock()
	if c.session == nil || c.local == nil {
		c.mu.Unlock()
		return
	}
	ping := network.Message{
		Type:          network.TypePing,
		PlayerID:      c.local.ID,
		SenderIP:      c.hostIP,
		SenderUDPPort: c.hostUDPPort,
		Timestamp:     time.Now().UnixMilli(),
	}
	var targets []string
	var silent []string
	now := time.Now()
	for _, p := range c.session.Players {
		if p.ID == c.local.ID {
			continue
		}
		last, ok := c.lastSeen[p.ID]
		if ok && now.Sub(last) > silenceTimeout {
			silent = append(silent, p.ID)
			continue
		}
		if !ok {
			c.lastSeen[p.ID] = now
		}
		targets = append(targets, p.UDPAddr())
	}
	c.mu.Unlock()

	for _, addr := range targets {
		c.transport.Send(addr, ping)
	}
	for _, id := range silent {
		c.dropPlayer(id, "connection timed out")
	}
}

// refreshAnnouncement republishes the discovery beacon with the current
// roster. No-op for clients and once the lobby has closed.
func (c *Controller) refreshAnnouncement() {
	c.mu.Lock()
	if c.disc == nil || c.session == nil || !c.isHost || c.session.Phase != undercover.PhaseLobby {
		c.mu.Unlock()
		return
	}
	names := make([]string, 0, len(c.session.Players))
	for _, p := range c.session.Players {
		names = append(names, p.Name)
	}
	a := discovery.Announcement{
		HostIP:         c.session.HostIP,
		HostPort:       c.session.HostPort,
		SessionName:    c.session.Name,
		MaxPlayers:     c.session.MaxPlayers,
		CurrentPlayers: len(c.session.Players),
		PlayerNames:    names,
	}
	disc := c.disc
	c.mu.Unlock()

	if err := disc.Announce(a); err != nil {
		c.logger.Warn("announcement failed", "error", err)
	}
}
