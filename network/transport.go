package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// maxDatagramSize bounds a single game message on the wire. Roster snapshots
// for 12 players fit with a wide margin.
const maxDatagramSize = 8192

// JoinTimeout bounds the join handshake round trip.
const JoinTimeout = 5 * time.Second

// Handler consumes one inbound best-effort message.
type Handler func(msg Message, from *net.UDPAddr)

// JoinHandler answers one join request with an acceptance or a rejection.
type JoinHandler func(req Message) Message

// Transport owns the best-effort UDP socket of a peer and, on the host, the
// TCP listener for join handshakes. Best-effort sends never block the caller.
type Transport struct {
	udp     *net.UDPConn
	joinLn  net.Listener
	closing chan struct{}
}

// NewTransport opens the best-effort socket on the given address
// ("ip:port", port 0 picks a free one).
func NewTransport(udpAddr string) (*Transport, error) {
	addr, err := net.ResolveUDPAddr("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Transport{
		udp:     conn,
		closing: make(chan struct{}),
	}, nil
}

// UDPPort returns the local port of the best-effort socket.
func (t *Transport) UDPPort() int {
	return t.udp.LocalAddr().(*net.UDPAddr).Port
}

// Start launches the best-effort read loop. Each datagram is decoded and
// handed to h; malformed datagrams are dropped.
func (t *Transport) Start(h Handler) {
	go func() {
		buffer := make([]byte, maxDatagramSize)
		for {
			n, from, err := t.udp.ReadFromUDP(buffer)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			var msg Message
			if err := json.Unmarshal(buffer[:n], &msg); err != nil {
				continue
			}
			if msg.Type == "" {
				continue
			}
			go h(msg, from)
		}
	}()
}

// Send delivers one message to addr over the best-effort channel. It is
// fire-and-forget: encoding or send failures are swallowed, loss is masked by
// the protocol's resync broadcasts.
func (t *Transport) Send(addr string, msg Message) {
	go func() {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return
		}
		select {
		case <-t.closing:
			return
		default:
		}
		t.udp.WriteToUDP(data, udpAddr)
	}()
}

// ServeJoin starts the reliable-channel listener for join handshakes. Each
// accepted connection carries exactly one request and one response.
func (t *Transport) ServeJoin(addr string, h JoinHandler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	t.joinLn = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			go serveJoinConn(conn, h)
		}
	}()
	return nil
}

func serveJoinConn(conn net.Conn, h JoinHandler) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(JoinTimeout))

	var req Message
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		return
	}
	if req.Type != TypeJoinRequest {
		return
	}
	resp := h(req)
	json.NewEncoder(conn).Encode(resp)
}

// Request performs the join round trip over the reliable channel: dial,
// send the request, wait for the single response. A peer that does not answer
// within the timeout surfaces as an error, never as a silent hang.
func Request(addr string, msg Message, timeout time.Duration) (Message, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return Message{}, fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Message{}, fmt.Errorf("sending request: %w", err)
	}
	var resp Message
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Message{}, fmt.Errorf("waiting for response: %w", err)
	}
	return resp, nil
}

// Close shuts both channels down.
func (t *Transport) Close() error {
	select {
	case <-t.closing:
		return nil
	default:
		close(t.closing)
	}
	err := t.udp.Close()
	if t.joinLn != nil {
		err = errors.Join(err, t.joinLn.Close())
	}
	return err
}
