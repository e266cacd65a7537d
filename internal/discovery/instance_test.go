package discovery

import (
	"reflect"
	"testing"
)

func TestInstance_URLs(t *testing.T) {
	tests := []struct {
		name   string
		inst   *Instance
		base   string
		socket string
	}{
		{
			name:   "IPv4 default ws path",
			inst:   &Instance{IP: "192.168.4.16", Port: 8480},
			base:   "http://192.168.4.16:8480",
			socket: "ws://192.168.4.16:8480/ws",
		},
		{
			name:   "IPv6 custom ws path",
			inst:   &Instance{IP: "fe80::1", Port: 9000, Metadata: map[string]string{"ws": "/control"}},
			base:   "http://[fe80::1]:9000",
			socket: "ws://[fe80::1]:9000/control",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inst.BaseURL(); got != tt.base {
				t.Errorf("BaseURL() = %v, want %v", got, tt.base)
			}
			if got := tt.inst.WebSocketURL(); got != tt.socket {
				t.Errorf("WebSocketURL() = %v, want %v", got, tt.socket)
			}
		})
	}
}

func TestInstance_String(t *testing.T) {
	inst := &Instance{
		Name:     "garage-pi",
		Hostname: "garage-pi.local.",
		IP:       "192.168.4.16",
		Port:     8480,
		Metadata: map[string]string{"bus": "socketcan/can0"},
	}
	want := "garage-pi (garage-pi.local.) at 192.168.4.16:8480 bus socketcan/can0"
	if got := inst.String(); got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}
}

func TestTXTRoundTrip(t *testing.T) {
	txt := TXT{"version": "1.0.0", "ws": "/ws", "bus": "virtual/vcan"}
	records := txt.Records()
	want := []string{"bus=virtual/vcan", "version=1.0.0", "ws=/ws"}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("Records() = %v, want %v", records, want)
	}
	if got := ParseTXT(records); !reflect.DeepEqual(got, txt) {
		t.Errorf("ParseTXT() = %v, want %v", got, txt)
	}
}
