package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"datve-cli/access"
	"datve-cli/service"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	Long:  `Sign in with email and password. Missing values are asked for interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		email := strings.TrimSpace(loginEmail)
		if email == "" {
			if email, err = promptEmail(); err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			if password, err = promptPassword(); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		d.restore(ctx)
		if _, err := d.session.Login(ctx, email, password, ""); err != nil {
			return fmt.Errorf("sign in: %s", service.ErrorMessage(err))
		}
		user := d.session.User()
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Name, user.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		ctx := cmd.Context()
		d.restore(ctx)
		d.session.Logout(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and what they may do",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		d.restore(cmd.Context())
		user := d.session.User()
		if user == nil {
			return errNotSignedIn
		}

		rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Field", "Value"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
			{Number: 2, WidthMax: 48},
		})
		t.AppendRows([]table.Row{
			{"ID", user.Id.String()},
			{"Name", user.Name},
			{"Email", user.Email},
			{"Role", user.Role.String()},
		})
		if !user.TheaterId.IsZero() {
			t.AppendRow(table.Row{"Theater", user.TheaterId.String()})
		}
		t.AppendSeparator()
		for _, perm := range access.PermissionsFor(user.Role) {
			t.AppendRow(table.Row{"Permissions", string(perm)}, rowConfigAutoMerge)
		}
		t.Render()
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")
}

func promptEmail() (string, error) {
	prompt := promptui.Prompt{
		Label: "Email",
		Validate: func(input string) error {
			if !strings.Contains(input, "@") {
				return errors.New("enter a valid email")
			}
			return nil
		},
	}
	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("read email: %w", err)
	}
	return strings.TrimSpace(email), nil
}

func promptPassword() (string, error) {
	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	password, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return password, nil
}
