// Package netutil discovers the address peers should use to reach this
// machine on the local network.
package netutil

import (
	"net"
)

// LocalIP returns the machine's LAN address. Interface enumeration is
// preferred; when it yields nothing usable, a connected UDP socket to a
// public address reveals which source address the kernel would route from.
// No packet is sent either way. Falls back to loopback as a last resort.
func LocalIP() string {
	if ip := interfaceIP(); ip != "" {
		return ip
	}
	if ip := routedIP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

func interfaceIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip.String()
	}
	return ""
}

func routedIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}
