package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/educanvas/salary-engine/factory"
	"github.com/educanvas/salary-engine/salary"
)

var (
	policyFile   string
	metricsFile  string
	instructorID string
	periodFlag   string

	metricFlags = map[string]*string{}
)

var metricNames = []string{"revenue", "sessions", "hours", "students", "session_value", "custom_amount"}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate one salary from a policy file",
	Long: `Calculate one salary without a server. The result is printed as JSON.

Metrics come from --metrics (a JSON file) and are overridden by the
individual metric flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pj, err := readPolicy(policyFile)
		if err != nil {
			return err
		}
		policy, err := factory.FromJSON(pj)
		if err != nil {
			return err
		}

		metrics, err := readMetrics(cmd)
		if err != nil {
			return err
		}

		period, err := salary.ParsePeriod(periodFlag)
		if err != nil {
			return err
		}

		resp, err := salary.Engine{}.Calculate(salary.Request{
			InstructorID: salary.InstructorID(instructorID),
			Period:       period,
			Policy:       policy,
			Metrics:      metrics,
			PreviewMode:  true,
		})
		if err != nil {
			return err
		}

		zap.L().Debug("calculated",
			zap.String("policy_id", string(resp.Calculation.PolicyID)),
			zap.String("net_salary", resp.Calculation.NetSalary.String()),
		)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Calculation)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Print every validation problem in a policy file",
	RunE: func(cmd *cobra.Command, args []string) error {
		pj, err := readPolicy(policyFile)
		if err != nil {
			return err
		}
		msgs, err := factory.Messages(pj)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(msgs) == 0 {
			fmt.Fprintf(out, "%s: valid\n", policyFile)
			return nil
		}
		for _, m := range msgs {
			fmt.Fprintln(out, m)
		}
		return fmt.Errorf("%s: %d problem(s)", policyFile, len(msgs))
	},
}

func init() {
	for _, c := range []*cobra.Command{calculateCmd, validateCmd} {
		c.Flags().StringVar(&policyFile, "policy", "", "policy file (.json, .yaml or .yml)")
		_ = c.MarkFlagRequired("policy")
	}

	calculateCmd.Flags().StringVar(&metricsFile, "metrics", "", "metrics JSON file")
	calculateCmd.Flags().StringVar(&instructorID, "instructor", "", "instructor id")
	calculateCmd.Flags().StringVar(&periodFlag, "period", "2025-01", "period (YYYY-MM)")
	for _, name := range metricNames {
		metricFlags[name] = calculateCmd.Flags().String(strings.ReplaceAll(name, "_", "-"), "", name+" for the period")
	}
}

func readPolicy(path string) (factory.PolicyJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return factory.PolicyJSON{}, eris.Wrapf(err, "read policy %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return factory.DecodeYAML(data)
	default:
		var pj factory.PolicyJSON
		if err := json.Unmarshal(data, &pj); err != nil {
			return factory.PolicyJSON{}, fmt.Errorf("failed to parse policy JSON: %w", err)
		}
		return pj, nil
	}
}

func readMetrics(cmd *cobra.Command) (salary.PeriodMetrics, error) {
	var mj factory.MetricsJSON
	if metricsFile != "" {
		data, err := os.ReadFile(metricsFile)
		if err != nil {
			return salary.PeriodMetrics{}, eris.Wrapf(err, "read metrics %s", metricsFile)
		}
		m, err := factory.ParseMetrics(data)
		if err != nil {
			return salary.PeriodMetrics{}, err
		}
		mj = factory.MetricsToJSON(m)
	}

	targets := map[string]*decimal.Decimal{
		"revenue":       &mj.Revenue,
		"sessions":      &mj.Sessions,
		"hours":         &mj.Hours,
		"students":      &mj.Students,
		"session_value": &mj.SessionValue,
		"custom_amount": &mj.CustomAmount,
	}
	for _, name := range metricNames {
		flag := strings.ReplaceAll(name, "_", "-")
		if !cmd.Flags().Changed(flag) {
			continue
		}
		d, err := decimal.NewFromString(*metricFlags[name])
		if err != nil {
			return salary.PeriodMetrics{}, fmt.Errorf("--%s: %w", flag, err)
		}
		*targets[name] = d
	}
	return mj.Metrics(), nil
}
