package call

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/spf13/cobra"
)

var (
	callCmd = &cobra.Command{
		Use:   "call [path] [args...]",
		Short: "Calls a remote function and prints the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			callArgs := make([]any, 0, len(args)-1)
			for _, raw := range args[1:] {
				callArgs = append(callArgs, parseLiteral(raw))
			}

			fn, err := conn.Entry(path)
			if err != nil {
				return err
			}

			result, err := fn.Call(callArgs...)
			if err != nil {
				return err
			}

			value, err := result.Materialize()
			if err != nil {
				return err
			}

			return printValue(value)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [path]",
		Short: "Materializes a remote value and prints it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			ref, err := conn.Entry(path)
			if err != nil {
				return err
			}

			value, err := ref.Materialize()
			if err != nil {
				return err
			}

			return printValue(value)
		},
	}
	indexCmd = &cobra.Command{
		Use:   "index [path] [key]",
		Short: "Indexes into a remote value and prints the item",
		Long: "The key is an integer (negative counts from the end), a slice " +
			"like 1:5 or ::-1, or a string key for mappings.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			key := parseKey(args[1])

			ref, err := conn.Entry(path)
			if err != nil {
				return err
			}

			item, err := ref.Index(key)
			if err != nil {
				return err
			}

			value, err := item.Materialize()
			if err != nil {
				return err
			}

			return printValue(value)
		},
	}
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLiteral interprets a command line argument as a JSON literal. Anything
// that does not parse is passed through as a string.
func parseLiteral(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}

	// JSON numbers decode as float64, keep integers integral
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return int64(f)
	}
	return v
}

// parseKey interprets an index key. "1:5" and "::-1" style keys become
// ranges, everything else goes through parseLiteral.
func parseKey(raw string) any {
	if strings.Contains(raw, ":") {
		parts := strings.SplitN(raw, ":", 3)
		r := &common.Range{}
		if s, err := strconv.ParseInt(parts[0], 10, 64); err == nil {
			r.Start = &s
		}
		if s, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			r.Stop = &s
		}
		if len(parts) == 3 {
			if s, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				r.Step = &s
			}
		}
		return r
	}
	return parseLiteral(raw)
}

// printValue renders a materialized value as JSON
func printValue(value any) error {
	out, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
