package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/logging"
)

const (
	// ServiceType is the mDNS service type of fisinject servers
	ServiceType = "_fisinject._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 3 * time.Second
)

// Scanner handles mDNS discovery
type Scanner struct {
	// Timeout is the maximum time to wait for instances
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every instance that answers within the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu        sync.Mutex
		instances []*Instance
		seen      = make(map[string]bool)
		done      = make(chan struct{})
	)
	go func() {
		defer close(done)
		for entry := range entries {
			inst := s.parseServiceEntry(entry)
			if inst == nil {
				continue
			}
			mu.Lock()
			if !seen[inst.Name] {
				seen[inst.Name] = true
				instances = append(instances, inst)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once the browse context ends.
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return instances, nil
}

// WaitFor returns the first instance called name.
func (s *Scanner) WaitFor(ctx context.Context, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Instance, 1)
	go func() {
		for entry := range entries {
			inst := s.parseServiceEntry(entry)
			if inst != nil && inst.Name == name {
				select {
				case found <- inst:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case inst := <-found:
		return inst, nil
	case <-ctx.Done():
		select {
		case inst := <-found:
			return inst, nil
		default:
		}
		return nil, fmt.Errorf("instance %q not found within %s", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil for entries without a usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry == nil || entry.Instance == "" || entry.Port == 0 {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	return &Instance{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     ParseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan with a custom timeout
func Scan(timeout time.Duration) ([]*Instance, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(context.Background())
}

// Advertiser is a registered mDNS service.
type Advertiser struct {
	server *zeroconf.Server
	name   string
}

// DefaultInstanceName returns the short hostname, or "fisinject".
func DefaultInstanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "fisinject"
	}
	host, _, _ = strings.Cut(host, ".")
	return host
}

// Advertise registers name on port with the given TXT records on all
// multicast capable interfaces.
func Advertise(name string, port int, txt TXT) (*Advertiser, error) {
	if name == "" {
		name = DefaultInstanceName()
	}
	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt.Records(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising over mDNS",
		zap.String("instance", name),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: server, name: name}, nil
}

// Name returns the registered instance name.
func (a *Advertiser) Name() string {
	return a.name
}

// Shutdown withdraws the service.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Debug("mDNS advertisement withdrawn", zap.String("instance", a.name))
}
