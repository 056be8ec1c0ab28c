package application

import "github.com/Kanty753/projet-reseau/domain/undercover"

// The notify helpers fan one event out to every registered listener. They are
// always called with c.mu released so a listener may call back into the
// controller.

func (c *Controller) snapshotListeners() []EventListener {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()
	return append([]EventListener(nil), c.listeners...)
}

func (c *Controller) notifyPlayersUpdated() {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	players := make([]undercover.Player, 0, len(c.session.Players))
	for _, p := range c.session.Players {
		players = append(players, *p)
	}
	c.mu.Unlock()

	for _, l := range c.snapshotListeners() {
		l.OnPlayersUpdated(players)
	}
}

func (c *Controller) notifyGameStarted(role undercover.Role, word string) {
	for _, l := range c.snapshotListeners() {
		l.OnGameStarted(role, word)
	}
}

func (c *Controller) notifyPhaseChanged(phase undercover.Phase) {
	for _, l := range c.snapshotListeners() {
		l.OnPhaseChanged(phase)
	}
}

func (c *Controller) notifyMessage(msg undercover.Message) {
	for _, l := range c.snapshotListeners() {
		l.OnMessageReceived(msg)
	}
}

func (c *Controller) notifyTurnChanged(speakerID string, remainingSeconds int, turnOrder []string) {
	for _, l := range c.snapshotListeners() {
		l.OnTurnChanged(speakerID, remainingSeconds, turnOrder)
	}
}

func (c *Controller) notifyTimerSync(remaining int) {
	for _, l := range c.snapshotListeners() {
		l.OnTimerSync(remaining)
	}
}

func (c *Controller) notifyGameEnded(message string) {
	for _, l := range c.snapshotListeners() {
		l.OnGameEnded(message)
	}
}

func (c *Controller) notifyConnectionStatus(connected bool, reason string) {
	for _, l := range c.snapshotListeners() {
		l.OnConnectionStatus(connected, reason)
	}
}
