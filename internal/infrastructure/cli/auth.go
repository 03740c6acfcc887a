package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	authName     string
	authEmail    string
	authUsername string
	authPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a user account",
	Long: `Create a user account. The password is prompted for when --password is
not given. Signing up does not log you in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFor(cmd)
		if err != nil {
			return err
		}
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		msg, err := services.Desk.Signup(cmd.Context(), authName, authEmail, password)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(msg))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFor(cmd)
		if err != nil {
			return err
		}
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		notice, err := services.Desk.Login(cmd.Context(), authEmail, password)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(notice))
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin session commands",
}

var adminLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as the admin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFor(cmd)
		if err != nil {
			return err
		}
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		notice, err := services.Desk.AdminLogin(cmd.Context(), authUsername, password)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(notice))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current user or admin session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		services.Desk.Probe(cmd.Context())
		notice, err := services.Desk.Logout(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(notice))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the role of the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Desk.Close()

		role := services.Desk.Probe(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "%s @ %s\n", role.DisplayName(), services.Client.BaseURL())
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVar(&authName, "name", "", "Display name")
	signupCmd.Flags().StringVar(&authEmail, "email", "", "Email address")
	signupCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when omitted)")

	loginCmd.Flags().StringVar(&authEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when omitted)")
	_ = loginCmd.MarkFlagRequired("email")

	adminLoginCmd.Flags().StringVar(&authUsername, "username", "", "Admin username")
	adminLoginCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when omitted)")
	_ = adminLoginCmd.MarkFlagRequired("username")

	adminCmd.AddCommand(adminLoginCmd)
	RootCmd.AddCommand(signupCmd, loginCmd, adminCmd, logoutCmd, whoamiCmd)
}

// passwordFor returns --password, or prompts for it. Terminal input is not
// echoed; piped input is read up to the first newline.
func passwordFor(cmd *cobra.Command) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
