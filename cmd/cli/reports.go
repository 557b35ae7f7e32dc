package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/spf13/cobra"
)

var (
	reportStatus string
	reportLimit  int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect the moderation queue",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		return listReports(cmd.Context(), e, cmd.OutOrStdout(), reportStatus, reportLimit)
	},
}

func init() {
	reportsListCmd.Flags().StringVar(&reportStatus, "status", "", "Only PENDING or RESOLVED reports")
	reportsListCmd.Flags().IntVar(&reportLimit, "limit", 50, "Maximum number of reports")
	reportsCmd.AddCommand(reportsListCmd)
}

func listReports(ctx context.Context, e *env, out io.Writer, status string, limit int) error {
	q := repository.ReportQuery{
		SortBy:    "created_at",
		SortOrder: "desc",
		Page:      repository.Page{Limit: limit}.Normalize(),
	}
	if status != "" {
		s, err := models.ParseReportStatus(status)
		if err != nil {
			return err
		}
		q.Status = &s
	}

	reports, err := repository.NewReportRepository(e.db).Query(ctx, q)
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(out, reports)
	}
	if len(reports) == 0 {
		fmt.Fprintln(out, "No reports")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTARGET\tSTATUS\tCREATED\tREASON")
	for _, r := range reports {
		reason := ""
		if r.Reason != nil {
			reason = *r.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Type, r.TargetID, r.Status, r.CreatedAt.Format("2006-01-02 15:04"), reason)
	}
	return w.Flush()
}
