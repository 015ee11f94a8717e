package cli

import (
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (requires an admin account)",
	}

	cmd.AddCommand(newAdminForceReturnCmd())
	cmd.AddCommand(newAdminStatusCmd())
	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminRemoveUserCmd())
	cmd.AddCommand(newAdminAuditCmd())

	return cmd
}

func newAdminForceReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force-return <locker-id>",
		Short: "Force-return a locker regardless of owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			result, err := client.ForceReturnLocker(id)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newAdminStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <locker-id> <status>",
		Short: "Set a locker's status (available, rented, overdue, maintenance)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			result, err := client.SetLockerStatus(id, args[1])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newAdminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.ListUsers()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newAdminRemoveUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-user <student-id>",
		Short: "Remove a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.RemoveUser(args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("User removed")
			return nil
		},
	}
}

func newAdminAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.AuditLog()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}
