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

package netcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/ncsid/ncsid/pkg/models"
)

const protocolICMP = 1

var (
	errInvalidICMPTarget = errors.New("icmp target is not an IPv4 address or resolvable host")
	errNoEchoReply       = errors.New("no ICMP echo reply")
)

// ICMPProber sends a single echo request and waits for the reply. The
// listen socket type is platform-specific: raw ICMP on Windows, datagram
// ICMP elsewhere.
type ICMPProber struct{}

func (*ICMPProber) Probe(ctx context.Context, target models.ProbeTarget) error {
	ip, err := resolveIPv4(ctx, target.Host)
	if err != nil {
		return err
	}

	conn, err := listenICMP()
	if err != nil {
		return fmt.Errorf("icmp listen: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// Unblock the read when a sibling probe already succeeded.
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  1,
			Data: []byte("ncsid-probe"),
		},
	}

	wb, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("icmp marshal: %w", err)
	}

	if _, err := conn.WriteTo(wb, icmpDestAddr(ip)); err != nil {
		return fmt.Errorf("icmp send to %s: %w", target.Host, err)
	}

	rb := make([]byte, 1500)

	for {
		n, _, err := conn.ReadFrom(rb)
		if err != nil {
			return fmt.Errorf("icmp read: %w", err)
		}

		rm, err := icmp.ParseMessage(protocolICMP, rb[:n])
		if err != nil {
			continue
		}

		if rm.Type == ipv4.ICMPTypeEchoReply {
			return nil
		}
	}
}

func resolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}

		return nil, fmt.Errorf("%w: %s", errInvalidICMPTarget, host)
	}

	addrs, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", errInvalidICMPTarget, host)
	}

	return addrs[0].To4(), nil
}
