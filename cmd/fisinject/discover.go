package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fisinject/internal/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find fisinject servers on the network",
	Long: `Browse mDNS for instances started with 'fisinject serve' and print their
addresses and metadata.`,
	Example: `  fisinject discover
  fisinject discover --timeout 10s`,
	Annotations: map[string]string{
		skipConfig: "true",
	},
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Browsing for %s (timeout: %s)...\n\n", discovery.ServiceType, discoverTimeout)

	instances, err := discovery.Scan(discoverTimeout)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if len(instances) == 0 {
		fmt.Println("No instances found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check that 'fisinject serve' is running without --no-mdns")
		fmt.Println("  - mDNS does not cross routers; use the same network segment")
		fmt.Println("  - Try increasing --timeout")
		return nil
	}

	fmt.Printf("Found %d instance(s):\n\n", len(instances))
	for i, inst := range instances {
		fmt.Printf("%d. %s\n", i+1, inst.Name)
		fmt.Printf("   URL:       %s\n", inst.BaseURL())
		fmt.Printf("   WebSocket: %s\n", inst.WebSocketURL())
		if bus := inst.GetMetadata("bus"); bus != "" {
			fmt.Printf("   Bus:       %s\n", bus)
		}
		if v := inst.GetMetadata("version"); v != "" {
			fmt.Printf("   Version:   %s\n", v)
		}
		fmt.Println()
	}
	return nil
}
