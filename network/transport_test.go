package network

import (
	"fmt"
	"net"
	"testing"
	"time"
)

func TestTransport_UDPRoundTrip(t *testing.T) {
	sender, err := NewTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()
	receiver, err := NewTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	received := make(chan Message, 1)
	receiver.Start(func(msg Message, _ *net.UDPAddr) {
		received <- msg
	})

	sent := Message{Type: TypeChat, PlayerID: "p1", PlayerName: "alice", Text: "hello", Timestamp: 1}
	sender.Send(fmt.Sprintf("127.0.0.1:%d", receiver.UDPPort()), sent)

	select {
	case got := <-received:
		if got.Type != TypeChat || got.Text != "hello" || got.PlayerName != "alice" {
			t.Errorf("expected %+v, got %+v", sent, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message never arrived")
	}
}

func TestTransport_MalformedDatagramIgnored(t *testing.T) {
	receiver, err := NewTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	received := make(chan Message, 2)
	receiver.Start(func(msg Message, _ *net.UDPAddr) {
		received <- msg
	})

	conn, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", receiver.UDPPort()))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write([]byte(`{"type":"PING","timestamp":5}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		if got.Type != TypePing {
			t.Errorf("expected the valid PING, got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("the valid message after the malformed one never arrived")
	}
	select {
	case got := <-received:
		t.Errorf("unexpected second message %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJoinHandshake_RequestResponse(t *testing.T) {
	host, err := NewTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer host.Close()

	err = host.ServeJoin("127.0.0.1:0", func(req Message) Message {
		if req.PlayerName == "alice" {
			return Message{Type: TypeJoinAccepted, Success: true, SessionID: "abcd1234", PlayerID: req.PlayerID}
		}
		return Message{Type: TypeJoinRejected, Reason: "name already in use"}
	})
	if err != nil {
		t.Fatal(err)
	}
	addr := host.joinLn.Addr().String()

	resp, err := Request(addr, Message{Type: TypeJoinRequest, PlayerID: "p1", PlayerName: "alice"}, JoinTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != TypeJoinAccepted || !resp.Success || resp.SessionID != "abcd1234" {
		t.Errorf("unexpected acceptance %+v", resp)
	}

	resp, err = Request(addr, Message{Type: TypeJoinRequest, PlayerID: "p2", PlayerName: "bob"}, JoinTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != TypeJoinRejected || resp.Reason != "name already in use" {
		t.Errorf("unexpected rejection %+v", resp)
	}
}

func TestRequest_TimeoutSurfacesAsError(t *testing.T) {
	// A TCP listener that accepts but never answers.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	_, err = Request(ln.Addr().String(), Message{Type: TypeJoinRequest}, 300*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error, got none")
	}
}
