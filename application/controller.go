package application

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Kanty753/projet-reseau/discovery"
	"github.com/Kanty753/projet-reseau/domain/undercover"
	"github.com/Kanty753/projet-reseau/network"
)

// EventListener is the sink the presentation layer registers to be told about
// every state change. Callbacks carry read-only snapshots; implementations
// must not hold on to them across calls.
type EventListener interface {
	OnPlayersUpdated(players []undercover.Player)
	OnGameStarted(role undercover.Role, word string)
	OnPhaseChanged(phase undercover.Phase)
	OnMessageReceived(msg undercover.Message)
	OnTurnChanged(speakerID string, remainingSeconds int, turnOrder []string)
	OnTimerSync(remainingSeconds int)
	OnGameEnded(message string)
	OnConnectionStatus(connected bool, reason string)
}

// Controller holds the only mutable reference to the session and mediates
// between the presentation layer, the domain and the network.
type Controller struct {
	logger *slog.Logger

	// mu serializes every access to session, local and the timer hand-off.
	mu      sync.Mutex
	session *undercover.Session
	local   *undercover.Player
	isHost  bool
	myWord  string
	timer   *countdown
	pending *time.Timer // grace delay between result and the next round

	transport *network.Transport
	router    *network.Router
	disc      *discovery.Discover

	hostIP      string
	hostUDPPort int

	lastSeen map[string]time.Time

	listenersMu sync.RWMutex
	listeners   []EventListener

	closed    chan struct{}
	closeOnce sync.Once
}

func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger:   logger,
		router:   network.NewRouter(),
		lastSeen: make(map[string]time.Time),
		closed:   make(chan struct{}),
	}
}

func (c *Controller) AddListener(l EventListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// CreateServer starts hosting a session: the reliable join listener, the
// best-effort game socket and the multicast announcer.
func (c *Controller) CreateServer(playerName, sessionName, ip string, port, maxPlayers int) error {
	udpPort := port + undercover.UDPPortOffset
	transport, err := network.NewTransport(fmt.Sprintf("%s:%d", ip, udpPort))
	if err != nil {
		return fmt.Errorf("opening game socket: %w", err)
	}
	if err := transport.ServeJoin(fmt.Sprintf("%s:%d", ip, port), c.handleJoinRequest); err != nil {
		transport.Close()
		return fmt.Errorf("opening join listener: %w", err)
	}

	local := undercover.NewPlayer(playerName, ip, port)
	local.IsHost = true
	local.IsReady = true

	session := undercover.NewSession(sessionName, ip, port, maxPlayers)
	session.AddPlayer(local)

	c.mu.Lock()
	c.transport = transport
	c.session = session
	c.local = local
	c.isHost = true
	c.hostIP = ip
	c.hostUDPPort = udpPort
	c.mu.Unlock()

	c.registerHostHandlers()
	c.startReceiving()

	disc := &discovery.Discover{Port: discovery.DefaultPort}
	if err := disc.Start(); err != nil {
		// A host without discovery is still joinable by address.
		c.logger.Warn("session discovery unavailable", "error", err)
	} else {
		c.disc = disc
		c.refreshAnnouncement()
	}

	c.startLivenessLoop()

	c.logger.Info("session created", "session", sessionName, "addr", fmt.Sprintf("%s:%d", ip, port), "udpPort", udpPort)
	c.notifyConnectionStatus(true, fmt.Sprintf("Hosting %s on %s:%d", sessionName, ip, port))
	c.notifyPlayersUpdated()
	return nil
}

// StartDiscovery begins listening for announced sessions and invokes cb with
// the deduplicated list every time it grows.
func (c *Controller) StartDiscovery(cb func([]discovery.Announcement)) error {
	disc := &discovery.Discover{Port: discovery.DefaultPort}
	if err := disc.Start(); err != nil {
		return err
	}
	c.mu.Lock()
	c.disc = disc
	c.mu.Unlock()

	go func() {
		known := make(map[string]discovery.Announcement)
		for {
			select {
			case <-c.closed:
				return
			case entry, ok := <-disc.Entries:
				if !ok {
					return
				}
				a := entry.Announcement
				prev, seen := known[a.Addr()]
				known[a.Addr()] = a
				if !seen || prev.CurrentPlayers != a.CurrentPlayers {
					list := make([]discovery.Announcement, 0, len(known))
					for _, v := range known {
						list = append(list, v)
					}
					cb(list)
				}
			}
		}
	}()
	return nil
}

// Join connects to an announced session: best-effort socket first, then the
// join round trip on the reliable channel. A rejection or a timeout surfaces
// through the connection-status callback and the returned error.
func (c *Controller) Join(playerName, localIP string, a discovery.Announcement) error {
	localPort := 5100 + rand.IntN(900)
	transport, err := network.NewTransport(fmt.Sprintf("%s:%d", localIP, localPort+undercover.UDPPortOffset))
	if err != nil {
		transport, err = network.NewTransport(fmt.Sprintf("%s:0", localIP))
		if err != nil {
			return fmt.Errorf("opening game socket: %w", err)
		}
	}
	udpPort := transport.UDPPort()

	local := undercover.NewPlayer(playerName, localIP, localPort)
	local.UDPPort = udpPort

	req := network.Message{
		Type:          network.TypeJoinRequest,
		PlayerID:      local.ID,
		PlayerName:    playerName,
		PlayerIP:      localIP,
		PlayerPort:    localPort,
		PlayerUDPPort: udpPort,
	}
	resp, err := network.Request(a.Addr(), req, network.JoinTimeout)
	if err != nil {
		transport.Close()
		c.notifyConnectionStatus(false, fmt.Sprintf("Connection failed: %v", err))
		return err
	}
	if resp.Type == network.TypeJoinRejected || !resp.Success {
		transport.Close()
		reason := resp.Reason
		if reason == "" {
			reason = "connection refused"
		}
		c.notifyConnectionStatus(false, reason)
		return fmt.Errorf("join rejected: %s", reason)
	}

	// The host may confirm our proposed identity or assign its own.
	if resp.PlayerID != "" {
		local = undercover.RestorePlayer(resp.PlayerID, playerName, localIP, localPort, udpPort)
	}

	session := undercover.NewSession(resp.SessionName, resp.HostIP, a.HostPort, a.MaxPlayers)
	if resp.SessionID != "" {
		session.ID = resp.SessionID
	}
	players := make([]*undercover.Player, 0, len(resp.Players))
	for _, info := range resp.Players {
		p := undercover.RestorePlayer(info.ID, info.Name, info.IP, info.Port, info.UDPPort)
		p.IsHost = info.IsHost
		p.Alive = info.Alive
		if info.ID == local.ID {
			p = local
		}
		players = append(players, p)
	}
	session.SetPlayers(players)

	c.mu.Lock()
	c.transport = transport
	c.session = session
	c.local = local
	c.isHost = false
	c.hostIP = resp.HostIP
	c.hostUDPPort = resp.HostUDPPort
	c.mu.Unlock()

	c.registerClientHandlers()
	c.startReceiving()

	c.logger.Info("joined session", "session", resp.SessionName, "playerId", local.ID)
	c.notifyConnectionStatus(true, fmt.Sprintf("Connected to %s", resp.SessionName))
	c.notifyPlayersUpdated()
	return nil
}

// StartGame launches the game. Host only; silently ignored below the minimum
// roster size.
func (c *Controller) StartGame() {
	c.mu.Lock()
	if !c.isHost || c.session == nil {
		c.mu.Unlock()
		return
	}
	secret := randomSecretWord()
	if !c.session.StartGame(secret) {
		c.mu.Unlock()
		c.logger.Warn("not enough players to start", "needed", undercover.MinPlayersToStart)
		return
	}
	c.myWord = c.session.WordFor(c.local)
	localRole := c.local.Role
	localWord := c.myWord

	// Role and word go to each player individually so an impostor never sees
	// the citizens' word on the wire.
	sends := make([]network.Message, 0, len(c.session.Players))
	targets := make([]string, 0, len(c.session.Players))
	for _, p := range c.session.Players {
		if p.ID == c.local.ID {
			continue
		}
		sends = append(sends, network.Message{
			Type:      network.TypeGameStart,
			Role:      string(p.Role),
			Word:      c.session.WordFor(p),
			Timestamp: time.Now().UnixMilli(),
		})
		targets = append(targets, p.UDPAddr())
	}
	c.mu.Unlock()

	for i, msg := range sends {
		c.transport.Send(targets[i], msg)
	}
	c.broadcastPhaseChange(undercover.PhaseWord, "")
	if c.disc != nil {
		c.disc.StopAnnouncing()
	}

	c.notifyGameStarted(localRole, localWord)
	c.notifyPhaseChanged(undercover.PhaseWord)
	c.notifyPlayersUpdated()

	// Small grace so every client has rendered its role before the first
	// countdown starts.
	c.schedule(2*time.Second, c.startSpeakerTurn)
	c.logger.Info("game started", "players", len(targets)+1)
}

// SpeakWord gives the local player's word for this round. Ignored when it is
// not their turn; the optimistic local echo happens before the host round
// trip.
func (c *Controller) SpeakWord(word string) {
	c.mu.Lock()
	if c.session == nil || c.local == nil {
		c.mu.Unlock()
		return
	}
	if !c.session.IsPlayerTurn(c.local.ID) {
		c.mu.Unlock()
		return
	}
	local := c.local
	isHost := c.isHost
	msg := network.Message{
		Type:       network.TypeWordSpoken,
		PlayerID:   local.ID,
		PlayerName: local.Name,
		Word:       word,
		Timestamp:  time.Now().UnixMilli(),
	}
	var echo undercover.Message
	if isHost {
		if !c.session.SpeakWord(local.ID, word) {
			c.mu.Unlock()
			return
		}
		echo = c.session.Messages[len(c.session.Messages)-1]
	} else {
		echo = undercover.Word(local, word)
	}
	c.mu.Unlock()

	c.notifyMessage(echo)
	if isHost {
		c.broadcastExcept(msg, local.ID)
		c.advanceTurn()
	} else {
		c.sendToHost(msg)
	}
}

// SendChat posts a chat line. Chat is open only during debate and voting.
func (c *Controller) SendChat(text string) {
	c.mu.Lock()
	if c.session == nil || c.local == nil || !c.session.ChatAllowed() {
		c.mu.Unlock()
		return
	}
	local := c.local
	isHost := c.isHost
	if isHost {
		c.session.AddChatMessage(local.ID, text)
	}
	c.mu.Unlock()

	msg := network.Message{
		Type:       network.TypeChat,
		PlayerID:   local.ID,
		PlayerName: local.Name,
		Text:       text,
		Timestamp:  time.Now().UnixMilli(),
	}
	c.notifyMessage(undercover.NewMessage(local.ID, local.Name, text, undercover.KindChat))
	if isHost {
		c.broadcastExcept(msg, local.ID)
	} else {
		c.sendToHost(msg)
	}
}

// Vote casts the local player's vote against target.
func (c *Controller) Vote(targetID string) {
	c.mu.Lock()
	if c.session == nil || c.local == nil {
		c.mu.Unlock()
		return
	}
	local := c.local
	isHost := c.isHost
	if isHost {
		if !c.session.Vote(local.ID, targetID) {
			c.mu.Unlock()
			return
		}
	} else if c.local.HasVoted || !c.local.Alive {
		c.mu.Unlock()
		return
	} else {
		// Optimistic local mark; the authoritative tally lives on the host.
		c.local.HasVoted = true
		c.local.VotedFor = targetID
	}
	c.mu.Unlock()

	if isHost {
		c.broadcastPlayerList()
		c.notifyPlayersUpdated()
		c.maybeFinishVoting()
	} else {
		c.sendToHost(network.Message{
			Type:      network.TypeVote,
			PlayerID:  local.ID,
			VoterID:   local.ID,
			TargetID:  targetID,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

// GuessWord submits the impostor's guess at the secret word.
func (c *Controller) GuessWord(guess string) {
	c.mu.Lock()
	if c.session == nil || c.local == nil || c.local.Role != undercover.RoleImpostor {
		c.mu.Unlock()
		return
	}
	local := c.local
	isHost := c.isHost
	c.mu.Unlock()

	if isHost {
		c.applyGuess(local.ID, guess)
	} else {
		c.sendToHost(network.Message{
			Type:      network.TypeGuess,
			PlayerID:  local.ID,
			Guess:     guess,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

// Leave announces an explicit disconnect to the host and shuts down.
func (c *Controller) Leave() {
	c.mu.Lock()
	local := c.local
	isHost := c.isHost
	c.mu.Unlock()

	if !isHost && local != nil {
		c.sendToHost(network.Message{
			Type:      network.TypeLeave,
			PlayerID:  local.ID,
			Timestamp: time.Now().UnixMilli(),
		})
	}
	c.Shutdown()
}

// Session returns a snapshot of the current session state for rendering.
func (c *Controller) Session() (undercover.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return undercover.Session{}, false
	}
	snapshot := *c.session
	snapshot.Players = clonePlayers(c.session.Players)
	return snapshot, true
}

// LocalPlayer returns a snapshot of the local player, if connected.
func (c *Controller) LocalPlayer() (undercover.Player, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local == nil {
		return undercover.Player{}, false
	}
	return *c.local, true
}

func (c *Controller) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isHost
}

// MyWord returns the word handed to the local player, empty for impostors.
func (c *Controller) MyWord() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.myWord
}

// Shutdown stops timers, announcements and sockets. The host broadcasts a
// final game-end so clients are not left waiting on a dead session.
func (c *Controller) Shutdown() {
	already := true
	c.closeOnce.Do(func() {
		close(c.closed)
		already = false
	})
	if already {
		return
	}

	c.mu.Lock()
	isHost := c.isHost
	sessionUp := c.session != nil && c.session.Phase != undercover.PhaseFinished
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.mu.Unlock()

	if isHost && sessionUp {
		c.broadcastToAll(network.Message{
			Type:      network.TypeGameEnd,
			Text:      "The host ended the session.",
			Timestamp: time.Now().UnixMilli(),
		})
	}
	c.stopCountdown()
	if c.disc != nil {
		c.disc.Close()
	}
	if c.transport != nil {
		c.transport.Close()
	}
	c.logger.Info("controller shut down")
}

// schedule runs fn after d unless the controller shuts down first. Only one
// pending transition exists at a time.
func (c *Controller) schedule(d time.Duration, fn func()) {
	c.mu.Lock()
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = time.AfterFunc(d, func() {
		select {
		case <-c.closed:
		default:
			fn()
		}
	})
	c.mu.Unlock()
}

func clonePlayers(players []*undercover.Player) []*undercover.Player {
	cloned := make([]*undercover.Player, len(players))
	for i, p := range players {
		cp := *p
		cloned[i] = &cp
	}
	return cloned
}
