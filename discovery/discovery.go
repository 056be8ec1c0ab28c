package discovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"
)

const multicastIpAddress = "239.0.0.1"

// DefaultPort is the multicast port game sessions announce themselves on.
const DefaultPort = 53551

// Announcement is the advertisement of one joinable session.
type Announcement struct {
	HostIP         string   `json:"hostIp"`
	HostPort       int      `json:"hostPort"`
	SessionName    string   `json:"name"`
	MaxPlayers     int      `json:"maxPlayers"`
	CurrentPlayers int      `json:"currentPlayers"`
	PlayerNames    []string `json:"playerNames,omitempty"`
}

// Addr returns the reliable-channel address joiners must dial.
func (a Announcement) Addr() string {
	return fmt.Sprintf("%s:%d", a.HostIP, a.HostPort)
}

func (a Announcement) Display() string {
	return fmt.Sprintf("%s (%s) - %d/%d players", a.SessionName, a.Addr(), a.CurrentPlayers, a.MaxPlayers)
}

// Entry represents a single advertisement received from a peer.
type Entry struct {
	Announcement Announcement
	Time         time.Time
}

// Discover announces the local session (if any) and listens for sessions
// announced by other peers. Configure Port and, optionally,
// IntervalBetweenAnnouncements before calling Start; discovered entries are
// then received on the Entries channel.
type Discover struct {
	Port                         uint16
	IntervalBetweenAnnouncements time.Duration
	Entries                      chan Entry

	mu       sync.Mutex
	info     []byte
	conn     *net.UDPConn
	sendConn *net.UDPConn
	key      []byte
}

// Start joins the multicast group and launches the background listener and
// announcer goroutines.
func (d *Discover) Start() error {
	if d.IntervalBetweenAnnouncements == 0 {
		d.IntervalBetweenAnnouncements = time.Second
	}
	d.Entries = make(chan Entry, 10)
	d.key = []byte(fmt.Sprintf("%08x", rand.Uint32()))
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", multicastIpAddress, d.Port))
	if err != nil {
		return err
	}
	d.conn, err = net.ListenMulticastUDP("udp", nil, addr)
	if err != nil {
		return err
	}
	d.sendConn, err = net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}
	d.startListener()
	d.startAnnouncer()
	return nil
}

// Announce sets or refreshes the advertisement carried by this peer's
// announcements. Call it again whenever the roster changes.
func (d *Discover) Announce(a Announcement) error {
	info, err := json.Marshal(a)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.info = info
	d.mu.Unlock()
	return nil
}

// StopAnnouncing silences this peer without stopping the listener.
func (d *Discover) StopAnnouncing() {
	d.mu.Lock()
	d.info = nil
	d.mu.Unlock()
}

// Close stops the discovery mechanism and closes the underlying UDP
// connections. Returns a combined error if either closure fails.
func (d *Discover) Close() error {
	err1 := d.conn.Close()
	err2 := d.sendConn.Close()
	return errors.Join(err1, err2)
}

func (d *Discover) startListener() {
	go func() {
		buffer := make([]byte, 2048)
		for {
			n, _, err := d.conn.ReadFromUDP(buffer)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			message := buffer[:n]
			if len(message) < 8 || bytes.Equal(message[:8], d.key) {
				continue
			}
			var a Announcement
			if err := json.Unmarshal(message[8:], &a); err != nil {
				continue
			}
			select {
			case d.Entries <- Entry{Announcement: a, Time: time.Now()}:
			default:
				// slow consumer, drop; the next announcement repeats it
			}
		}
	}()
}

func (d *Discover) startAnnouncer() {
	go func() {
		for {
			d.mu.Lock()
			info := d.info
			d.mu.Unlock()
			// A silent peer still writes its bare key so this goroutine
			// notices the closed connection; listeners drop the empty payload.
			if _, err := d.sendConn.Write(append(append([]byte{}, d.key...), info...)); err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
			}
			time.Sleep(d.IntervalBetweenAnnouncements)
		}
	}()
}
