// Package discovery advertises and finds fisinject remote control servers
// on the local network over mDNS.
//
// A running `fisinject serve` registers an instance of the "_fisinject._tcp"
// service. Its TXT records carry the software version, the CAN interface in
// use and the HTTP paths of the control endpoints. `fisinject discover`
// browses for the service and lists what it finds.
//
// # Usage Example
//
//	// Advertise a server listening on port 8480
//	adv, err := discovery.Advertise("garage-pi", 8480, discovery.TXT{
//	    "version": "1.2.0",
//	    "bus":     "socketcan/can0",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
//	// Find servers for 3 seconds
//	instances, err := discovery.Scan(3 * time.Second)
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Instances must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
