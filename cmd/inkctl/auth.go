package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anonto42/inkwell/backend/pkg/client"
	"github.com/anonto42/inkwell/backend/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long:  "Sign in and store the session. The password is read from INKWELL_PASSWORD, or prompted for without echo.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return fmt.Errorf("--email is required")
		}
		password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		api := client.New(apiURL)
		s, err := api.SignIn(ctx, loginEmail, password)
		if err != nil {
			return err
		}

		manager := session.NewManager(session.FileStore{Path: sessionPath}, api)
		if err := manager.SignIn(ctx, s); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		role := "user"
		if manager.IsAdmin() {
			role = "admin"
		}
		printSuccess(cmd.OutOrStdout(), "Signed in as %s (%s)", s.Email, role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := (session.FileStore{Path: sessionPath}).Clear(); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		s := manager.Current()
		fmt.Fprintf(cmd.OutOrStdout(), "%s (user %d, admin=%t, expires %s)\n",
			s.Email, s.UserID, manager.IsAdmin(), s.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

// readPassword takes INKWELL_PASSWORD when set. Otherwise it prompts, with
// echo disabled when in is a terminal.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if password := viper.GetString("password"); password != "" {
		return password, nil
	}

	fmt.Fprint(prompt, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
}
