package main

import (
	"fmt"

	"github.com/isdelr/sample-app/internal/services"
	"github.com/spf13/cobra"
)

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant (or with --revoke, take away) admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			users := services.NewUserService(db)
			user, err := users.GetUserByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := users.SetAdmin(cmd.Context(), user.ID, !revoke); err != nil {
				return err
			}

			verb := "is now an admin"
			if revoke {
				verb = "is no longer an admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", user.Name, user.Email, verb)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove admin rights instead")
	return cmd
}
