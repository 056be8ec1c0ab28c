package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// guessIpAddress takes a base IP address and a partial address string,
// and fills in the missing octets from the base address. Typing "42" on a
// 192.168.0.x network means 192.168.0.42.
func guessIpAddress(baseAddress net.IP, partialAddr string) (net.IP, error) {
	ip := make(net.IP, len(baseAddress))
	copy(ip, baseAddress)
	octets := strings.Split(partialAddr, ".")
	if len(octets) == 1 && octets[0] == "" {
		return ip, nil
	}
	for i := 0; i < len(octets); i++ {
		var octet byte
		_, err := fmt.Sscanf(octets[i], "%d", &octet)
		if err != nil {
			return net.IP{}, err
		}
		ip[len(ip)-len(octets)+i] = octet
	}
	return ip, nil
}

// localIPv4 returns the first non-loopback IPv4 address of this machine,
// falling back to loopback when no interface is up.
func localIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4.String(), nil
			}
		}
	}
	return "127.0.0.1", nil
}

// splitHostPort splits an address into host and port, using defaultPort if no port is specified.
func splitHostPort(addr string, defaultPort int) (string, string, error) {
	ipaddr, port, err := net.SplitHostPort(addr)
	if err != nil {
		addr = addr + ":" + strconv.Itoa(defaultPort)
		ipaddr, port, err = net.SplitHostPort(addr)
		if err != nil {
			return "", "", err
		}
	}
	return ipaddr, port, nil
}
