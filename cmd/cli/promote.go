package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/inkvault/backend/internal/models"
	"github.com/spf13/cobra"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <username> <role>",
	Short: "Set a user's role (owner, moderator or user)",
	Long: `Set the role of a profile. "user" removes moderation rights.
The profile cache is invalidated so the server sees the change immediately.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		return promote(cmd.Context(), e, cmd.OutOrStdout(), args[0], args[1])
	},
}

func promote(ctx context.Context, e *env, out io.Writer, username, roleName string) error {
	role := models.ParseRole(roleName)
	if string(role) != strings.ToLower(roleName) {
		return fmt.Errorf("unknown role %q, want owner, moderator or user", roleName)
	}

	profile, err := e.profiles.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("profile %q: %w", username, err)
	}
	updated, err := e.profiles.Patch(ctx, profile.ID, map[string]interface{}{
		"roles": models.RoleList{role},
	})
	if err != nil {
		return fmt.Errorf("failed to update roles: %w", err)
	}

	if output == "json" {
		return printJSON(out, updated)
	}
	fmt.Fprintf(out, "%s is now %s\n", updated.Username, role)
	return nil
}
