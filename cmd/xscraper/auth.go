package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xscraper/pkg/auth"
	"xscraper/pkg/browser"
	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/ui"
)

var loginVerify bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the X login",
	Long: `Manage stored X credentials.

Credentials are kept in the system keychain when one is available and in
an encrypted file otherwise. TWITTER_USER and TWITTER_PASS in the
environment take precedence over stored accounts.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store X credentials",
	Example: `  # Interactive login
  xscraper auth login

  # Store and sign in once to fill the cookie jar
  xscraper auth login gopher --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials. Without a username you choose from the stored
accounts, or remove them all.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&loginVerify, "verify", false, "sign in with a visible browser and save the session cookies")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	auth.ShowLoginGuide()
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("👤 X username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = input
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("\n⚠️  Account '%s' already exists. Update the password? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("🔑 Password (hidden): ")
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}

	account := &auth.Account{Username: username, Password: password}
	if err := manager.Store(account); err != nil {
		return err
	}
	ui.PrintSuccess("Account saved: " + username)

	if loginVerify {
		return verifyLogin(cmd, account)
	}

	fmt.Println("\n📖 Next:")
	fmt.Println("   $ xscraper search --query golang --limit 50")
	fmt.Println("   $ xscraper profile <username> --tab all")
	return nil
}

// verifyLogin signs in once with a visible browser so any challenge can be
// solved by hand, then saves the session cookies
func verifyLogin(cmd *cobra.Command, account *auth.Account) error {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	cfg.Browser.Headless = false
	cfg.Browser.Username = account.Username
	cfg.Browser.Password = account.Password

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	session, err := browser.NewSession(ctx, browser.OptionsFromConfig(cfg.Browser), logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	if err := session.EnsureLogin(ctx); err != nil {
		return err
	}
	ui.PrintSuccess("Signed in; session cookies saved to " + cfg.Browser.CookieFile)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintWarning("No stored accounts found")
		return nil
	}

	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Username)
	}
	fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')
	var choice int
	_, _ = fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL accounts? (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return nil
		}
		if err := manager.DeleteAll(); err != nil {
			return err
		}
		ui.PrintSuccess("All accounts removed")
	case choice > 0 && choice <= len(accounts):
		name := accounts[choice-1].Username
		if err := manager.Delete(name); err != nil {
			return err
		}
		ui.PrintSuccess("Account removed: " + name)
	default:
		return errors.New("invalid choice")
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'xscraper auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	return nil
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if stdinIsTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
