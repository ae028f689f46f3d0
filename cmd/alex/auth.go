package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/VarunWeb6/ALEX-AI/internal/auth"
)

// promptEmail and promptPassword are indirections so tests can swap the
// interactive input helpers.
var (
	promptEmail    = readEmail
	promptPassword = readPassword
)

func readEmail() (string, error) {
	fmt.Print("Email: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptEmail()
			if err != nil {
				return err
			}
			password, err := promptPassword()
			if err != nil {
				return err
			}

			res, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.session.SetLogin(
				&auth.Credential{Token: res.Token, IssuedAt: time.Now().Unix()},
				&auth.Identity{ID: res.User.ID, Email: res.User.Email},
			); err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", res.User.Email)
			return nil
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptEmail()
			if err != nil {
				return err
			}
			password, err := promptPassword()
			if err != nil {
				return err
			}

			res, err := a.api.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.session.SetLogin(
				&auth.Credential{Token: res.Token, IssuedAt: time.Now().Unix()},
				&auth.Identity{ID: res.User.ID, Email: res.User.Email},
			); err != nil {
				return err
			}
			fmt.Printf("registered as %s\n", res.User.Email)
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			id := a.session.Identity()
			fmt.Printf("%s (%s)\n", id.Email, id.ID)
			return nil
		},
	}
}
