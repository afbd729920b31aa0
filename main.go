package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentsched",
	Short: "Calculate hour-by-hour agent staffing needs from customer call requirements",
	Long: `agentsched converts per-customer call-volume forecasts into an
hour-by-hour staffing plan for a single civil day, optionally constrained by
a global agent capacity allocated in priority order. Scheduling is
timezone-aware: DST transition days have 23 or 25 hourly buckets.`,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
