package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineplan/app"
	"github.com/kilianp07/lineplan/config"
	"github.com/kilianp07/lineplan/core/scheduler"
	"github.com/kilianp07/lineplan/core/store"
	"github.com/kilianp07/lineplan/core/timeutil"
	"github.com/kilianp07/lineplan/infra/logger"
)

var (
	cfgPath    string
	dataPath   string
	tuningPath string
	output     string
)

var rootCmd = &cobra.Command{
	Use:           "lineplan",
	Short:         "Production scheduling and staff assignment",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	pf.StringVarP(&dataPath, "data", "d", "", "plant fixture to seed before running")
	pf.StringVar(&tuningPath, "tuning", "", "scheduler tuning file replacing the scheduler section")
	pf.StringVarP(&output, "output", "o", "table", "output format: table or json")
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), errorStyle.Render("error: "+err.Error()))
	}
	return err
}

// withService loads the configuration, builds the service, seeds it when
// --data is set and hands it to fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if tuningPath != "" {
		if cfg.Scheduler, err = scheduler.LoadConfig(tuningPath); err != nil {
			return fmt.Errorf("load tuning: %w", err)
		}
	}
	logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if dataPath != "" {
		fx, err := store.LoadFixture(dataPath)
		if err != nil {
			return fmt.Errorf("load fixture: %w", err)
		}
		if err := svc.Seed(ctx, fx); err != nil {
			return fmt.Errorf("seed fixture: %w", err)
		}
	}
	return fn(ctx, svc)
}

// parseTime reads an optional timestamp flag.
func parseTime(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := timeutil.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}
