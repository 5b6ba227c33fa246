package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/conclave/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Inspect the host and suggest engine sizing",
	Long:  "Report CPU, memory and load, and suggest a max_parallelism for this host.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info := diagnostics.Collect(ctx)

	fmt.Println("Host:")
	fmt.Println()
	if info.CPUModel != "" {
		fmt.Printf("  CPU:        %s\n", info.CPUModel)
	}
	fmt.Printf("  Cores:      %d physical, %d threads\n", info.CPUCores, info.CPUThreads)
	fmt.Printf("  CPU usage:  %.1f%%\n", info.CPUPercent)
	fmt.Printf("  Memory:     %.0f / %.0f MB (%.1f%%)\n", info.MemUsedMB, info.MemTotalMB, info.MemPercent)
	if info.LoadAvg1 > 0 {
		fmt.Printf("  Load (1m):  %.2f\n", info.LoadAvg1)
	}
	fmt.Printf("  Runtime:    %s, %d goroutines\n", info.GoVersion, info.Goroutines)
	fmt.Println()
	fmt.Printf("Suggested engine.max_parallelism: %d\n", diagnostics.SuggestedParallelism(info))
	return nil
}
