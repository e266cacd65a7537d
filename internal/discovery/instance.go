package discovery

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Instance is a discovered fisinject server.
type Instance struct {
	// Name is the mDNS instance name (e.g., "garage-pi")
	Name string

	// Hostname is the mDNS hostname (e.g., "garage-pi.local.")
	Hostname string

	// IP is the first address reported, IPv4 preferred
	IP string

	// Port is the HTTP port of the remote control server
	Port int

	// Metadata contains the TXT records ("version", "bus", "ws", ...)
	Metadata map[string]string

	// DiscoveredAt is when the instance was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the instance
func (i *Instance) String() string {
	s := fmt.Sprintf("%s (%s) at %s", i.Name, i.Hostname, net.JoinHostPort(i.IP, strconv.Itoa(i.Port)))
	if bus := i.GetMetadata("bus"); bus != "" {
		s += " bus " + bus
	}
	return s
}

// BaseURL returns the HTTP base URL for the instance
func (i *Instance) BaseURL() string {
	return "http://" + net.JoinHostPort(i.IP, strconv.Itoa(i.Port))
}

// WebSocketURL returns the URL of the command websocket
func (i *Instance) WebSocketURL() string {
	path := i.GetMetadata("ws")
	if path == "" {
		path = "/ws"
	}
	return "ws://" + net.JoinHostPort(i.IP, strconv.Itoa(i.Port)) + path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}

// TXT is a set of TXT record key/value pairs.
type TXT map[string]string

// Records renders the pairs as sorted "key=value" strings.
func (t TXT) Records() []string {
	records := make([]string, 0, len(t))
	for k, v := range t {
		records = append(records, k+"="+v)
	}
	sort.Strings(records)
	return records
}

// ParseTXT parses "key=value" records. A record without "=" is a key with
// an empty value.
func ParseTXT(records []string) TXT {
	t := make(TXT, len(records))
	for _, rec := range records {
		k, v, _ := strings.Cut(rec, "=")
		t[k] = v
	}
	return t
}
