package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/feedback/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/feedback/pkg/application"
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/summary"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	listJSON         bool
	statsJSON        bool
	submitText       string
	submitCategory   string
	submitScreenshot string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show feedback as your current role sees it",
	Long: `Show feedback as your current role sees it.

Anonymous visitors and users see a flat list. Admins see feedback grouped
into Positive, Neutral and Negative sections along with any summaries.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		if err := services.Desk.Start(cmd.Context()); err != nil {
			return MapError(fmt.Errorf("load feedback: %w", err))
		}
		if listJSON {
			return writeJSON(cmd, services.Desk.Items())
		}
		renderer(services).render(cmd.OutOrStdout(), services.Desk.Plan())
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit feedback",
	Long: `Submit feedback, optionally with a screenshot.

Signed-in users are credited as the author; otherwise the feedback is
recorded as Anonymous.

Examples:
  feedback submit --text "Checkout is slow"
  feedback submit -t "Crash on save" -c Bug --screenshot ./crash.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := feedback.ParseCategory(submitCategory)
		if err != nil {
			return MapError(err)
		}
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		sub := feedback.Submission{
			Text:       submitText,
			Category:   category,
			Screenshot: submitScreenshot,
		}
		if err := services.Desk.Submit(cmd.Context(), sub); err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(application.NoticeSubmitted))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a feedback entry (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		if err := services.Desk.Delete(cmd.Context(), id); err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(fmt.Sprintf("%s (#%d)", application.NoticeDeleted, id)))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feedback totals by category and sentiment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		if err := services.Desk.Refresh(cmd.Context()); err != nil {
			return MapError(fmt.Errorf("load stats: %w", err))
		}
		if statsJSON {
			return writeJSON(cmd, services.Desk.Stats().Normalize())
		}
		renderStats(cmd.OutOrStdout(), services.Desk.Plan().Stats)
		return nil
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <id>...",
	Short: "Generate AI summaries for feedback entries (admin)",
	Long: `Generate AI summaries for one or more feedback entries.

Summaries are requested concurrently. Repeating an id does not request it
twice.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		entries := make([]summary.Entry, len(ids))
		errs := make([]error, len(ids))
		var g errgroup.Group
		for i, id := range ids {
			g.Go(func() error {
				entries[i], errs[i] = services.Desk.Summarize(cmd.Context(), id)
				return nil
			})
		}
		_ = g.Wait()

		out := cmd.OutOrStdout()
		for i, id := range ids {
			text := entries[i].Display()
			if errs[i] != nil {
				text = alertStyle.Render(summary.FailedText)
			}
			fmt.Fprintf(out, "#%d: %s\n", id, text)
		}
		if err := errors.Join(errs...); err != nil {
			return MapError(err)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output the raw feedback list as JSON")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")

	submitCmd.Flags().StringVarP(&submitText, "text", "t", "", "Feedback text (required)")
	submitCmd.Flags().StringVarP(&submitCategory, "category", "c", string(feedback.CategoryGeneral), "Category: General, Bug or Feature Request")
	submitCmd.Flags().StringVar(&submitScreenshot, "screenshot", "", "Path to a screenshot to attach")

	RootCmd.AddCommand(listCmd, submitCmd, deleteCmd, statsCmd, summarizeCmd)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, NewCLIError(fmt.Sprintf("invalid feedback id %q", s), "Run 'feedback list' to see available ids", err)
	}
	return id, nil
}

func renderer(services *wiring.AppServices) planRenderer {
	return planRenderer{resolve: services.Client.ResolveURL}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
