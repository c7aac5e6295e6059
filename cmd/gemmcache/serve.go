package main

import (
	"github.com/spf13/cobra"

	"github.com/tracelab/gemmcache/monitoring"
	"github.com/tracelab/gemmcache/simulation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one configuration and serve its frames over HTTP",
	Long: `Serve runs one configuration and starts a web server an ` +
		`external renderer can pull frames, statistics, and heatmaps from.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := configFromFlags(cmd)
		exitOnErr(err)

		sim, err := simulation.New(cfg)
		exitOnErr(err)

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = envPort(0)
		}

		monitor := monitoring.NewMonitor().WithPortNumber(port)

		open, _ := cmd.Flags().GetBool("open")
		if open {
			monitor = monitor.WithBrowserOpen()
		}

		monitor.RegisterSimulation(sim)

		// The pipeline is synchronous; classify everything before the
		// server starts handing out frames.
		bar := monitor.CreateProgressBar("classify", uint64(sim.NumFrames()))
		for sim.Step() {
			bar.IncrementFinished(1)
		}
		monitor.CompleteProgressBar(bar)

		monitor.StartServer()

		select {}
	},
}

func init() {
	addConfigFlags(serveCmd)
	serveCmd.Flags().Int("port", 0,
		"port to serve on (0 picks a free port; GEMMCACHE_PORT overrides)")
	serveCmd.Flags().Bool("open", false, "open the browser on start")
	rootCmd.AddCommand(serveCmd)
}
