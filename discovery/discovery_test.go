package discovery

import (
	"testing"
	"time"
)

func TestDiscover_AnnouncementRoundTrip(t *testing.T) {
	host := &Discover{Port: 53553, IntervalBetweenAnnouncements: 100 * time.Millisecond}
	if err := host.Start(); err != nil {
		t.Fatal(err)
	}
	defer host.Close()
	if err := host.Announce(Announcement{
		HostIP:         "192.168.1.10",
		HostPort:       5000,
		SessionName:    "friday night",
		MaxPlayers:     8,
		CurrentPlayers: 1,
		PlayerNames:    []string{"alice"},
	}); err != nil {
		t.Fatal(err)
	}

	browser := &Discover{Port: 53553, IntervalBetweenAnnouncements: 100 * time.Millisecond}
	if err := browser.Start(); err != nil {
		t.Fatal(err)
	}
	defer browser.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case entry := <-browser.Entries:
			a := entry.Announcement
			if a.SessionName != "friday night" {
				t.Fatalf("unexpected announcement %+v", a)
			}
			if a.Addr() != "192.168.1.10:5000" {
				t.Errorf("expected addr 192.168.1.10:5000, got %s", a.Addr())
			}
			if a.CurrentPlayers != 1 || len(a.PlayerNames) != 1 {
				t.Errorf("expected a single-player roster, got %+v", a)
			}
			return
		case <-deadline:
			t.Fatal("no announcement received")
		}
	}
}

func TestDiscover_SelfAnnouncementsFiltered(t *testing.T) {
	d := &Discover{Port: 53554, IntervalBetweenAnnouncements: 50 * time.Millisecond}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if err := d.Announce(Announcement{SessionName: "mine", HostIP: "127.0.0.1", HostPort: 5000}); err != nil {
		t.Fatal(err)
	}

	select {
	case entry := <-d.Entries:
		t.Fatalf("received own announcement %+v", entry)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestDiscover_CloseStopsListener(t *testing.T) {
	d := &Discover{Port: 53555}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
}
