// Package cli implements festctl, a terminal client for the festival results.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/festboard/internal/adapters/upstream"
	service "github.com/okian/festboard/internal/app"
	"github.com/okian/festboard/internal/config"
	"github.com/okian/festboard/pkg/logger"
)

// runtime carries the flags and the service shared by all commands.
type runtime struct {
	apiURL  string
	noColor bool
	verbose bool

	svc *service.Service
}

// NewRootCommand builds the festctl command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "festctl",
		Short: "Festival results and leaderboards in the terminal",
		Long: `festctl reads the festival API and prints leaderboards, programme
results, candidate achievements and certificate details as tables.

Configuration follows the server: defaults, then the YAML file named by
FESTBOARD_CONFIG, then FESTBOARD_* variables. --api overrides the base URL.`,
		SilenceUsage:      true,
		PersistentPreRunE: rt.setup,
	}

	root.PersistentFlags().StringVar(&rt.apiURL, "api", "", "festival API base URL (overrides config)")
	root.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, "disable colored headings")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newLeaderboardCmd(rt),
		newProgrammesCmd(rt),
		newResultsCmd(rt),
		newSearchCmd(rt),
		newAchievementsCmd(rt),
		newCertificateCmd(rt),
	)
	return root
}

// setup loads configuration and builds the service before any subcommand runs.
func (rt *runtime) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if rt.apiURL != "" {
		cfg.APIBaseURL = rt.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	log := logger.Nop()
	if rt.verbose {
		if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		_ = logger.SetLevelString("debug")
		log = logger.Named("festctl")
	}

	client, err := upstream.New(cfg.APIBaseURL,
		upstream.WithTimeout(cfg.RequestTimeout()),
		upstream.WithLogger(log),
	)
	if err != nil {
		return err
	}
	rt.svc = service.New(client,
		service.WithLogger(log),
		service.WithFanoutPolicy(policy),
		service.WithFanoutLimit(cfg.FanoutLimit),
	)
	return nil
}

func (rt *runtime) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), rt.noColor)
}
