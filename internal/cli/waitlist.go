package cli

import (
	"github.com/spf13/cobra"
)

func newWaitlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waitlist",
		Short: "Waitlist commands",
	}

	cmd.AddCommand(newWaitlistJoinCmd())
	cmd.AddCommand(newWaitlistListCmd())

	return cmd
}

func newWaitlistJoinCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the locker waitlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.JoinWaitlist(email); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Joined waitlist")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to enqueue (defaults to your account)")

	return cmd
}

func newWaitlistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the waitlist in queue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Waitlist()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}
