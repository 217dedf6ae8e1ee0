package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"imgscrape/pkg/auth"
	"imgscrape/pkg/ui"
)

var (
	// Auth command flags
	profileName string
	host        string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage W&B API keys",
	Long: `Manage stored Weights & Biases API keys, one per named profile.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - WANDB_API_KEY environment variable (read-only)

Never share your API key or commit it to a repository!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store an API key securely",
	Long: `Store a W&B API key in the system keychain or encrypted file.

The key is read without echo. Get it from ` + auth.AuthorizeURL + `.`,
	Example: `  # Store the default profile
  imgscrape auth login

  # Store a named profile for a self-hosted server
  imgscrape auth login work --host https://wandb.example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long:  `List stored profiles with masked API keys.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().StringVar(&host, "host", "", "W&B server URL for self-hosted installs")
}

func profileArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := profileArg(args)
	reader := bufio.NewReader(os.Stdin)

	auth.ShowQuickAPIKeyGuide(ui.Out)

	if existing, _ := manager.Retrieve(name); existing != nil && !existing.LastModified.IsZero() {
		fmt.Fprintf(ui.Out, "\n⚠️  Profile '%s' already exists. Replace its key? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var key string
	for {
		fmt.Fprint(ui.Out, "\n🔐 API key (hidden): ")
		key, err = readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}

		switch {
		case strings.EqualFold(key, "help"):
			auth.ShowAPIKeyGuide(ui.Out)
			continue
		case len(key) < 40:
			fmt.Fprintln(ui.Out, "\n❌ That doesn't look like a W&B API key (expected at least 40 characters).")
			fmt.Fprint(ui.Out, "Try again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return errors.New("no API key stored")
			}
			continue
		}
		break
	}

	profile := &auth.Profile{Name: name, APIKey: key, Host: host}
	if err := manager.Store(profile); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("\n✅ API key stored for profile '%s'", name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := profileArg(args)
	if err := manager.Delete(name); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Removed profile '%s'", name))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profiles, err := manager.List()
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		ui.PrintWarning("No stored profiles")
		fmt.Fprintln(ui.Out, "\nStore one with:\n  imgscrape auth login")
		return nil
	}

	ui.PrintHighlight("Stored profiles")
	for _, p := range profiles {
		masked := auth.SanitizeProfile(p)
		line := fmt.Sprintf("  %-12s %s", masked.Name, masked.APIKey)
		if masked.Host != "" {
			line += "  " + ui.Dim(masked.Host)
		}
		if !masked.LastModified.IsZero() {
			line += "  " + ui.Dim("updated "+masked.LastModified.Format(time.RFC3339))
		} else {
			line += "  " + ui.Dim("(environment)")
		}
		fmt.Fprintln(ui.Out, line)
	}
	return nil
}

// readSecret reads a line from stdin without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
