package cli

import (
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/festboard/internal/app"
)

func newLeaderboardCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"leaderboards"},
		Short:   "Show team, overall and category leaderboards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := rt.svc.Leaderboards(cmd.Context())
			if err != nil {
				return fail(err)
			}
			rt.printer(cmd).leaderboards(view)
			return nil
		},
	}
}

func newProgrammesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "programmes",
		Short: "List programmes by date with the winners of published ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := rt.svc.Programmes(cmd.Context())
			if err != nil {
				return fail(err)
			}
			rt.printer(cmd).programmes(entries)
			return nil
		},
	}
}

func newResultsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "results <programmeId>",
		Short: "Show the result sheet of a programme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := rt.svc.ProgrammeResults(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			rt.printer(cmd).results(view)
			return nil
		},
	}
}

func newSearchCmd(rt *runtime) *cobra.Command {
	var pick int
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search candidates by name or admission number",
		Long: `Search candidates by name or admission number. With --pick N the
achievements of the Nth listed candidate are shown as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			if strings.TrimSpace(term) == "" {
				return fail(service.ErrEmptyTerm)
			}

			page := service.NewSearchSession(rt.svc)
			st := page.Search(cmd.Context(), term)
			if reason, msg, failed := st.Failure(); failed {
				return &ViewError{Reason: reason, Message: msg}
			}
			found, _ := st.Data()

			p := rt.printer(cmd)
			p.candidates(found)
			if pick == 0 {
				return nil
			}
			if pick < 0 || pick > len(found) {
				return badPick(pick, len(found))
			}

			ach := page.Select(cmd.Context(), found[pick-1])
			if reason, msg, failed := ach.Failure(); failed {
				return &ViewError{Reason: reason, Message: msg}
			}
			view, _ := ach.Data()
			p.heading(found[pick-1].Name)
			p.achievements(view)
			return nil
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "show achievements of the Nth result (1-based)")
	return cmd
}

func newAchievementsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "achievements <candidateId>",
		Short: "Show a candidate's placed and graded results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := rt.svc.Achievements(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			rt.printer(cmd).achievements(view)
			return nil
		},
	}
}

func newCertificateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "certificate <programmeId> <resultId>",
		Short: "Show certificate details and its download link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := rt.svc.Certificate(cmd.Context(), args[0], args[1])
			if err != nil {
				return fail(err)
			}
			rt.printer(cmd).certificate(cert)
			return nil
		},
	}
}
