package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shipdeck/internal/api"
	"shipdeck/internal/batch"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and store the session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		var username string
		if len(args) == 1 {
			username = args[0]
		} else {
			fmt.Print("Username: ")
			rd := bufio.NewReader(os.Stdin)
			line, err := rd.ReadString('\n')
			if err != nil {
				return err
			}
			username = strings.TrimSpace(line)
		}
		if username == "" {
			return fmt.Errorf("username required")
		}

		fmt.Print("Password: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		if err := a.session.Login(cmd.Context(), username, string(secret)); err != nil {
			return fmt.Errorf("%s", api.Message(err))
		}

		user := a.session.User()
		fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
		fmt.Printf("Balance: %s\n", batch.FormatUSD(user.Profile.Balance))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		a.session.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account and balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireSession(cmd); err != nil {
			return err
		}
		user := a.session.User()
		fmt.Printf("%s %s (%s)\n", user.FirstName, user.LastName, user.Username)
		if user.Profile.CompanyName != "" {
			fmt.Printf("Company: %s\n", user.Profile.CompanyName)
		}
		fmt.Printf("Balance: %s\n", batch.FormatUSD(user.Profile.Balance))
		return nil
	},
}
