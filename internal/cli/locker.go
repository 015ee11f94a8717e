package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLockerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locker",
		Short: "Locker rental commands",
	}

	cmd.AddCommand(newLockerListCmd())
	cmd.AddCommand(newLockerGetCmd())
	cmd.AddCommand(newLockerRentCmd())
	cmd.AddCommand(newLockerReturnCmd())
	cmd.AddCommand(newLockerCodeCmd())
	cmd.AddCommand(newLockerVerifyCmd())

	return cmd
}

// parseLockerID validates a positional locker id argument
func parseLockerID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid locker id: %s", arg)
	}
	return id, nil
}

func newLockerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all lockers",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.ListLockers()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newLockerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <locker-id>",
		Short: "Show a single locker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			result, err := client.GetLocker(id)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newLockerRentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rent <locker-id>",
		Short: "Rent an available locker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			result, err := client.RentLocker(id)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newLockerReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <locker-id>",
		Short: "Return a locker you rent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			result, err := client.ReturnLocker(id)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newLockerCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "code <locker-id>",
		Short: "Generate a time-boxed access code for your locker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			result, err := client.GenerateAccessCode(id)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newLockerVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <locker-id> <code>",
		Short: "Verify an access code against a locker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLockerID(args[0])
			if err != nil {
				return err
			}

			if err := client.VerifyAccessCode(id, args[1]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Access code valid")
			return nil
		},
	}
}
