package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracelab/gemmcache/datarecording"
	"github.com/tracelab/gemmcache/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one configuration and report its cache statistics",
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := configFromFlags(cmd)
		exitOnErr(err)

		sim, err := simulation.New(cfg)
		exitOnErr(err)

		summary := sim.Run()
		printSummary(cfg, summary)

		recordPath, _ := cmd.Flags().GetString("record")
		if recordPath != "" {
			runLog := datarecording.NewRunLog(datarecording.New(recordPath))
			runLog.Record(sim, summary)
			runLog.Flush()
		}
	},
}

func init() {
	addConfigFlags(runCmd)
	runCmd.Flags().String("record", "",
		"record the summary into this SQLite database")
	rootCmd.AddCommand(runCmd)
}

func printSummary(cfg simulation.Config, summary simulation.Summary) {
	blocking := "unblocked"
	if cfg.Blocked {
		blocking = fmt.Sprintf("blocked %dx%d", cfg.BlockSize, cfg.BlockSize)
	}

	fmt.Printf("%s, n=%d, %s:\n", cfg.LoopOrder, cfg.N, blocking)
	fmt.Printf("  Total accesses: %d\n", summary.TotalAccesses)
	fmt.Printf("  Hits:           %d\n", summary.Hits)
	fmt.Printf("  Misses:         %d\n", summary.Misses)
	fmt.Printf("  Hit rate:       %.2f%%\n", summary.HitRate*100)
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
