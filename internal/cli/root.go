// Package cli wires the pipeline stages into the vaxpulse command.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/logging"
)

const dateFlagLayout = "2006-01-02"

// app carries the configuration loaded for one invocation.
type app struct {
	env string
	cfg *config.Config
}

// NewRootCmd builds the vaxpulse command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "vaxpulse",
		Short: "Occupational COVID-19 vaccine sentiment pipeline",
		Long: `vaxpulse collects Reddit posts and comments about COVID-19 vaccines from
blue-collar and white-collar communities, labels their sentiment with an LLM and
produces the statistics and figures comparing the two groups.

Stages run one at a time, each reading the previous stage's table:
  vaxpulse collect             # Reddit -> raw CSV
  vaxpulse label               # raw CSV -> labeled CSV
  vaxpulse analyze             # labeled CSV -> markdown report
  vaxpulse visualize           # labeled CSV -> PNG figures
  vaxpulse export              # labeled CSV -> DynamoDB`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	root.PersistentFlags().StringVar(&a.env, "env", env, "environment; loads config/envs/.env.<env>")

	root.AddCommand(
		a.collectCmd(),
		a.labelCmd(),
		a.analyzeCmd(),
		a.visualizeCmd(),
		a.exportCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.env)
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel)
	a.cfg = cfg
	return nil
}

// windowFlags holds the optional --from/--to date filter.
type windowFlags struct {
	from string
	to   string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.from, "from", "", "only use rows created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&w.to, "to", "", "only use rows created on or before this date (YYYY-MM-DD)")
}

func (w *windowFlags) window() (config.Window, error) {
	var win config.Window
	var err error
	if w.from != "" {
		if win.Start, err = time.Parse(dateFlagLayout, w.from); err != nil {
			return config.Window{}, fmt.Errorf("[CLI] invalid --from: %w", err)
		}
	}
	if w.to != "" {
		if win.End, err = time.Parse(dateFlagLayout, w.to); err != nil {
			return config.Window{}, fmt.Errorf("[CLI] invalid --to: %w", err)
		}
	}
	if !win.Start.IsZero() && !win.End.IsZero() && win.End.Before(win.Start) {
		return config.Window{}, fmt.Errorf("[CLI] --to %s is before --from %s", w.to, w.from)
	}
	return win, nil
}

func orDefault(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
