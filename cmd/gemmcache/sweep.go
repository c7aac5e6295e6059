package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracelab/gemmcache/datarecording"
	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/simulation"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run all six loop orders, blocked and unblocked, and compare",
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := configFromFlags(cmd)
		exitOnErr(err)

		var runLog *datarecording.RunLog
		recordPath, _ := cmd.Flags().GetString("record")
		if recordPath != "" {
			runLog = datarecording.NewRunLog(datarecording.New(recordPath))
		}

		fmt.Printf("%-6s %-10s %10s %10s %10s %9s\n",
			"ORDER", "BLOCKING", "ACCESSES", "HITS", "MISSES", "HIT RATE")

		for _, order := range gemm.Orders() {
			for _, blocked := range []bool{true, false} {
				runCfg := cfg
				runCfg.LoopOrder = order
				runCfg.Blocked = blocked

				sim, err := simulation.New(runCfg)
				exitOnErr(err)

				summary := sim.Run()

				blocking := "unblocked"
				if blocked {
					blocking = fmt.Sprintf("b=%d", runCfg.BlockSize)
				}

				fmt.Printf("%-6s %-10s %10d %10d %10d %8.2f%%\n",
					order, blocking,
					summary.TotalAccesses, summary.Hits, summary.Misses,
					summary.HitRate*100)

				if runLog != nil {
					runLog.Record(sim, summary)
				}
			}
		}

		if runLog != nil {
			runLog.Flush()
		}
	},
}

func init() {
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().String("record", "",
		"record every run into this SQLite database")
	rootCmd.AddCommand(sweepCmd)
}
