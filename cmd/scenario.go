package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineplan/config"
	"github.com/kilianp07/lineplan/infra/logger"
	"github.com/kilianp07/lineplan/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario [file or dir]...",
	Short: "Run plant scenarios against an in-memory store and check their outcome",
	Args:  cobra.ArbitraryArgs,
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})
	if len(args) == 0 {
		args = []string{"qa/scenarios"}
	}

	var all []*scenarios.Scenario
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			scs, err := scenarios.LoadDir(a)
			if err != nil {
				return err
			}
			all = append(all, scs...)
			continue
		}
		sc, err := scenarios.Load(a)
		if err != nil {
			return err
		}
		all = append(all, sc)
	}

	log := logger.New("scenario")
	rows := make([][]string, 0, len(all))
	failed := 0
	for _, sc := range all {
		res, err := scenarios.Run(cmd.Context(), sc, log)
		if err != nil {
			return err
		}
		problems := scenarios.Check(sc, res)
		verdict := successStyle.Render("PASS")
		if len(problems) > 0 {
			failed++
			verdict = errorStyle.Render("FAIL")
		}
		rows = append(rows, []string{sc.Name, verdict, strings.Join(problems, "; ")})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Scenario", "Result", "Details"}, rows))
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(all))
	}
	return nil
}
