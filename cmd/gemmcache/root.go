package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/mem/cache"
	"github.com/tracelab/gemmcache/simulation"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "gemmcache",
	Short: "gemmcache simulates the cache behavior of GEMM memory-access " +
		"patterns under different loop orders and tilings.",
	Long: `gemmcache replays the element accesses of C += A*B for any of ` +
		`the six loop orders, blocked or unblocked, through a ` +
		`set-associative LRU cache model, and reports hit/miss statistics.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file may override defaults such as GEMMCACHE_PORT.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("n", "n", 16, "matrix dimension")
	cmd.Flags().Int("block-size", 4, "tile size when blocking is on")
	cmd.Flags().String("order", "kji",
		"loop order: ijk, ikj, jik, jki, kij, or kji")
	cmd.Flags().Bool("unblocked", false, "disable blocking/tiling")
	cmd.Flags().Uint64("cache-size", 32768, "cache size in bytes")
	cmd.Flags().Uint64("line-size", 64, "cache line size in bytes")
	cmd.Flags().Uint64("associativity", 8, "cache way associativity")
	cmd.Flags().Uint64("element-size", 8, "matrix element size in bytes")
}

func configFromFlags(cmd *cobra.Command) (simulation.Config, error) {
	n, _ := cmd.Flags().GetInt("n")
	blockSize, _ := cmd.Flags().GetInt("block-size")
	orderName, _ := cmd.Flags().GetString("order")
	unblocked, _ := cmd.Flags().GetBool("unblocked")
	cacheSize, _ := cmd.Flags().GetUint64("cache-size")
	lineSize, _ := cmd.Flags().GetUint64("line-size")
	associativity, _ := cmd.Flags().GetUint64("associativity")
	elementSize, _ := cmd.Flags().GetUint64("element-size")

	order, err := gemm.ParseLoopOrder(orderName)
	if err != nil {
		return simulation.Config{}, err
	}

	cfg := simulation.Config{
		N:         n,
		BlockSize: blockSize,
		LoopOrder: order,
		Blocked:   !unblocked,
		Geometry: cache.Geometry{
			CacheSizeBytes:   cacheSize,
			LineSizeBytes:    lineSize,
			Associativity:    associativity,
			ElementSizeBytes: elementSize,
		},
	}

	return cfg, cfg.Validate()
}

func envPort(fallback int) int {
	portStr := os.Getenv("GEMMCACHE_PORT")
	if portStr == "" {
		return fallback
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		fmt.Fprintf(os.Stderr,
			"Ignoring invalid GEMMCACHE_PORT %q\n", portStr)
		return fallback
	}

	return port
}
