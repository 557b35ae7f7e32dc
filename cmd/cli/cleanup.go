package main

import (
	"context"
	"fmt"
	"io"

	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/tasks"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run the expired session, code and pending user cleanup once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		return cleanup(cmd.Context(), e, cmd.OutOrStdout())
	},
}

func cleanup(ctx context.Context, e *env, out io.Writer) error {
	svc := tasks.NewCleanupService(repository.NewSessionRepository(e.db), repository.NewUserRepository(e.db), 0)
	res, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "Removed %d sessions, %d codes, %d pending users\n", res.Sessions, res.Codes, res.PendingUsers)
	return nil
}
