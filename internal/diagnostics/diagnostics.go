// Package diagnostics probes the network environment of a node: local
// interfaces, reachability of the broker host, and an end-to-end broker
// round-trip. It backs the `peercamd diagnose` and `peercamd nettest`
// commands used in the field when two nodes cannot see each other.
package diagnostics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os/exec"
	"strconv"
	"time"
)

// InterfaceInfo describes one address of a local network interface.
type InterfaceInfo struct {
	Name    string
	Address string
}

// PingResult captures the outcome of a system ping.
type PingResult struct {
	Success bool
	Output  string
}

// Report is the outcome of a full diagnostics run.
type Report struct {
	Interfaces     []InterfaceInfo
	BrokerHost     string
	BrokerPort     int
	BrokerPing     PingResult
	BrokerPortOpen bool
	Duration       time.Duration
}

// Healthy reports whether the broker looks reachable end to end.
func (r *Report) Healthy() bool {
	return r.BrokerPing.Success && r.BrokerPortOpen
}

// Render writes a human-readable report.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, "Network Diagnostics")
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w, "Local interfaces:")
	if len(r.Interfaces) == 0 {
		fmt.Fprintln(w, "  (none found)")
	}
	for _, iface := range r.Interfaces {
		fmt.Fprintf(w, "  %-10s %s\n", iface.Name, iface.Address)
	}
	fmt.Fprintf(w, "Broker host:      %s\n", r.BrokerHost)
	fmt.Fprintf(w, "Broker ping:      %s\n", passFail(r.BrokerPing.Success))
	fmt.Fprintf(w, "Broker port %-5d %s\n", r.BrokerPort, passFail(r.BrokerPortOpen))
	fmt.Fprintf(w, "Overall:          %s (%s)\n", passFail(r.Healthy()), r.Duration.Round(time.Millisecond))
}

func passFail(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

// ListInterfaces returns the IPv4 addresses of all up, non-loopback
// interfaces.
func ListInterfaces() ([]InterfaceInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("diagnostics: failed to list interfaces: %w", err)
	}

	var infos []InterfaceInfo
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			infos = append(infos, InterfaceInfo{Name: iface.Name, Address: ipNet.IP.String()})
		}
	}
	return infos, nil
}

// Ping runs the system ping against host.
func Ping(ctx context.Context, host string, count int) PingResult {
	cmd := exec.CommandContext(ctx, "ping", "-c", strconv.Itoa(count), host)
	out, err := cmd.CombinedOutput()
	return PingResult{
		Success: err == nil,
		Output:  string(out),
	}
}

// CheckPort reports whether a TCP port accepts connections within timeout.
func CheckPort(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// SplitBrokerURL extracts host and port from a broker URL such as
// tcp://192.168.1.20:1883.
func SplitBrokerURL(brokerURL string) (string, int, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return "", 0, fmt.Errorf("diagnostics: bad broker url %q: %w", brokerURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("diagnostics: broker url %q has no host", brokerURL)
	}
	port := 1883
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("diagnostics: bad broker port in %q: %w", brokerURL, err)
		}
	}
	return host, port, nil
}

// Run performs the full diagnostics pass against the broker.
func Run(ctx context.Context, brokerURL string) (*Report, error) {
	start := time.Now()

	host, port, err := SplitBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}

	interfaces, err := ListInterfaces()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Interfaces: interfaces,
		BrokerHost: host,
		BrokerPort: port,
	}
	report.BrokerPing = Ping(ctx, host, 3)
	report.BrokerPortOpen = CheckPort(host, port, 2*time.Second)
	report.Duration = time.Since(start)

	return report, nil
}
