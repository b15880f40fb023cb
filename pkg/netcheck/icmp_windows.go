/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:build windows

package netcheck

import (
	"net"

	"golang.org/x/net/icmp"
)

// listenICMP opens a raw ICMP socket. Windows has no datagram ICMP
// socket type; the service runs elevated, so raw is available.
func listenICMP() (*icmp.PacketConn, error) {
	return icmp.ListenPacket("ip4:icmp", "0.0.0.0")
}

func icmpDestAddr(ip net.IP) net.Addr {
	return &net.IPAddr{IP: ip}
}
