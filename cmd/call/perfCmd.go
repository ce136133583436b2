package call

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/MilkClouds/SimpleRPyC/cmd/util"
	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for SimpleRPC servers",
		Long:    "Benchmarks the lazy reference operations against the builtin namespace of the server.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 10
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. resolve,call)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for SimpleRPC servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	resolveResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("resolve") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				ref, err := conn.Entry("math")
				if err != nil {
					log.Printf("(resolve) - error resolving entry: %v\n", err)
					continue
				}
				if err := ref.Release(); err != nil {
					log.Printf("(resolve) - error releasing reference: %v\n", err)
				}
			}
		})
	})

	results["resolve"] = resolveResult
	printResult("resolve", resolveResult)

	callResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("call") {
			return
		}

		sqrt, err := conn.Entry("math.sqrt")
		if err != nil {
			log.Printf("(call) - error resolving entry: %v\n", err)
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				result, err := sqrt.Call(2.0)
				if err != nil {
					log.Printf("(call) - error calling function: %v\n", err)
					continue
				}
				if err := result.Release(); err != nil {
					log.Printf("(call) - error releasing reference: %v\n", err)
				}
			}
		})
	})

	results["call"] = callResult
	printResult("call", callResult)

	materializeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("materialize") {
			return
		}

		pi, err := conn.Entry("math.pi")
		if err != nil {
			log.Printf("(materialize) - error resolving entry: %v\n", err)
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if _, err := pi.Materialize(); err != nil {
					log.Printf("(materialize) - error materializing: %v\n", err)
				}
			}
		})
	})

	results["materialize"] = materializeResult
	printResult("materialize", materializeResult)

	chainResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("chain") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				mod, err := conn.Entry("math")
				if err != nil {
					log.Printf("(chain) - error resolving entry: %v\n", err)
					continue
				}
				sqrt, err := mod.Attr("sqrt")
				if err != nil {
					log.Printf("(chain) - error getting attribute: %v\n", err)
					continue
				}
				result, err := sqrt.Call(16.0)
				if err != nil {
					log.Printf("(chain) - error calling function: %v\n", err)
					continue
				}
				if _, err := result.Materialize(); err != nil {
					log.Printf("(chain) - error materializing: %v\n", err)
				}
				for _, ref := range []interface{ Release() error }{result, sqrt, mod} {
					if err := ref.Release(); err != nil {
						log.Printf("(chain) - error releasing reference: %v\n", err)
					}
				}
			}
		})
	})

	results["chain"] = chainResult
	printResult("chain", chainResult)

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec",
		"Serializer", "Transport", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
