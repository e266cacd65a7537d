package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "instance with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "garage-pi"},
				HostName:      "garage-pi.local.",
				Port:          8480,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"version=1.0.0", "bus=socketcan/can0"},
			},
			wantName: "garage-pi",
			wantIP:   "192.168.4.16",
			wantPort: 8480,
		},
		{
			name: "IPv6 only instance",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				HostName:      "bench.local.",
				Port:          8480,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "bench",
			wantIP:   "fe80::1",
			wantPort: 8480,
		},
		{
			name: "both families prefer IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "car"},
				Port:          9000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "car",
			wantIP:   "10.0.0.5",
			wantPort: 9000,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				Port:          8480,
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.9")},
			},
			wantNil: true,
		},
		{
			name: "no instance name",
			entry: &zeroconf.ServiceEntry{
				Port:     8480,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.9")},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if inst != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", inst)
				}
				return
			}
			if inst == nil {
				t.Fatal("parseServiceEntry() = nil, want instance")
			}
			if inst.Name != tt.wantName {
				t.Errorf("Name = %v, want %v", inst.Name, tt.wantName)
			}
			if inst.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", inst.IP, tt.wantIP)
			}
			if inst.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", inst.Port, tt.wantPort)
			}
		})
	}
}

func TestParseServiceEntryMetadata(t *testing.T) {
	inst := NewScanner().parseServiceEntry(&zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "garage-pi"},
		Port:          8480,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
		Text:          []string{"version=1.0.0", "bus=slcan//dev/ttyACM0", "flag"},
	})
	if inst == nil {
		t.Fatal("parseServiceEntry() = nil")
	}
	if got := inst.GetMetadata("bus"); got != "slcan//dev/ttyACM0" {
		t.Errorf("bus = %q", got)
	}
	if _, ok := inst.Metadata["flag"]; !ok {
		t.Error("key without value should be kept")
	}
	if got := inst.GetMetadata("missing"); got != "" {
		t.Errorf("missing key = %q, want empty", got)
	}
}

func TestNewScanner(t *testing.T) {
	if s := NewScanner(); s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
}
