package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blueox/schedule/internal/schedule"
	"github.com/blueox/schedule/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserRoleCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		configPath string
		role       string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Create a user",
		Long:  "Creates a user that can sign in to the dashboard. Prompts for the password when --password is not given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, configPath, args[0], role, password)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	cmd.Flags().StringVar(&role, "role", string(schedule.RoleViewer), "role: viewer, editor or admin")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func runUserAdd(cmd *cobra.Command, configPath, email, role, password string) error {
	r := schedule.Role(role)
	if !r.Valid() {
		return fmt.Errorf("unknown role %q (viewer, editor, admin)", role)
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	user, err := session.CreateUser(cmd.Context(), gormDB, email, password, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s) with role %s\n", user.Email, user.ID, r)
	return nil
}

// promptPassword reads a password without echo when in is a terminal,
// otherwise one line from in.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newUserRoleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "role <email> <role>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserRole(cmd, configPath, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	return cmd
}

func runUserRole(cmd *cobra.Command, configPath, email, role string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	user, err := session.LookupUser(cmd.Context(), gormDB, email)
	if err != nil {
		return err
	}
	if err := session.SetRole(cmd.Context(), gormDB, user.ID, schedule.Role(role)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, role)
	return nil
}
