package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/effort-cli/internal/estimate"
	"github.com/sells-group/effort-cli/internal/model"
)

var (
	estimateFile    string
	estimateKLOC    float64
	estimateDrivers []string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Run one estimate and print the result as JSON",
	Long: `Runs one estimate from a YAML or JSON request file, flags, or both.
Flags override the file: --kloc replaces estimatedKLOC and each --driver
replaces or adds that driver's rating. Use "null" as the rating to have it inferred.`,
	Example: `  effort-cli estimate --kloc 10 --driver rely=High --driver cplx=VeryHigh --driver tool=null
  effort-cli estimate --file request.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := buildEstimateRequest(estimateFile, cmd.Flags().Changed("kloc"), estimateKLOC, estimateDrivers)
		if err != nil {
			return err
		}

		env, err := initEstimator("estimate")
		if err != nil {
			return err
		}

		res, err := env.Estimate(cmd.Context(), req)
		if err != nil {
			return eris.Wrap(err, "estimate")
		}
		return writeResult(os.Stdout, res)
	},
}

// buildEstimateRequest merges the request file with command-line overrides.
func buildEstimateRequest(path string, klocSet bool, kloc float64, drivers []string) (estimate.Request, error) {
	var req estimate.Request
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, eris.Wrapf(err, "read request %s", path)
		}
		// JSON is valid YAML, so one decoder serves both.
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, eris.Wrapf(err, "parse request %s", path)
		}
	}

	if klocSet {
		req.EstimatedKLOC = &kloc
	}

	overrides, err := parseDriverFlags(drivers)
	if err != nil {
		return req, err
	}
	for _, o := range overrides {
		replaced := false
		for i := range req.CostDrivers {
			if req.CostDrivers[i].Driver == o.Driver {
				req.CostDrivers[i] = o
				replaced = true
			}
		}
		if !replaced {
			req.CostDrivers = append(req.CostDrivers, o)
		}
	}
	return req, nil
}

// parseDriverFlags turns "rely=High" pairs into assignments.
func parseDriverFlags(pairs []string) ([]model.Assignment, error) {
	out := make([]model.Assignment, 0, len(pairs))
	for _, p := range pairs {
		id, value, ok := strings.Cut(p, "=")
		id = strings.ToLower(strings.TrimSpace(id))
		if !ok || id == "" {
			return nil, eris.Errorf("invalid --driver %q, want driver=rating", p)
		}
		out = append(out, model.Assignment{
			Driver: model.Driver(id),
			Rating: model.ParseRating(strings.TrimSpace(value)),
		})
	}
	return out, nil
}

func writeResult(w io.Writer, res *estimate.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "write result")
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateFile, "file", "f", "", "request file (YAML or JSON)")
	estimateCmd.Flags().Float64Var(&estimateKLOC, "kloc", 0, "estimated size in thousands of lines of code")
	estimateCmd.Flags().StringArrayVarP(&estimateDrivers, "driver", "d", nil, "cost driver rating as driver=rating (repeatable)")
	rootCmd.AddCommand(estimateCmd)
}
