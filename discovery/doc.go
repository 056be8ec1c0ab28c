// Package discovery provides UDP multicast-based discovery of game sessions
// on the local network.
//
// A hosting peer announces its session advertisement (address, name,
// capacity, current roster) on a cadence and refreshes it whenever the roster
// changes. Joining peers listen on the same multicast group and receive the
// advertisements on the Entries channel. Typical usage:
//
//	d := &discovery.Discover{Port: discovery.DefaultPort}
//	if err := d.Start(); err != nil {
//		return err
//	}
//	defer d.Close()
//	for entry := range d.Entries {
//		fmt.Println(entry.Announcement.Display())
//	}
//
// Behavior:
//   - Announcements are sent via UDP multicast to 239.0.0.1 on the configured port.
//   - Each instance uses a random 8-byte key to identify its own packets and filter them out.
//   - Peers that only browse simply never call Announce; they send nothing.
//   - Malformed announcements are dropped silently.
package discovery
