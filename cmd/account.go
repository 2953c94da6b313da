package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/packlaunch/packlaunch/account"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// accountCmd represents the account command
var accountCmd = &cobra.Command{
	Use:     "account",
	Short:   "Manage offline accounts",
	Aliases: []string{"accounts"},
}

var accountAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add an offline account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		editAccounts(func(accounts *account.Accounts) error {
			acc, err := accounts.Add(args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("account.add.select") {
				if err := accounts.Select(acc.Username); err != nil {
					return err
				}
			}
			fmt.Printf("Account %s added (UUID %s)\n", acc.Username, acc.UUID)
			return nil
		})
	},
}

var accountRemoveCmd = &cobra.Command{
	Use:     "remove <username>",
	Short:   "Remove an account",
	Aliases: []string{"rm", "delete"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		editAccounts(func(accounts *account.Accounts) error {
			if err := accounts.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("Account %s removed\n", args[0])
			return nil
		})
	},
}

var accountSelectCmd = &cobra.Command{
	Use:     "select <username>",
	Short:   "Choose the account to play as",
	Aliases: []string{"use"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		editAccounts(func(accounts *account.Accounts) error {
			if err := accounts.Select(args[0]); err != nil {
				return err
			}
			fmt.Printf("Playing as %s\n", accounts.Selected)
			return nil
		})
	},
}

var accountListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List accounts; the selected one is marked with *",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		accounts, err := account.Load()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if len(accounts.Accounts) == 0 {
			fmt.Println("No accounts yet; add one with account add <username>")
			return
		}
		fmt.Print(formatAccounts(accounts))
	},
}

func formatAccounts(accounts *account.Accounts) string {
	current, _ := accounts.Current()
	var sb strings.Builder
	for _, acc := range accounts.Accounts {
		marker := " "
		if current != nil && current.Username == acc.Username {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s (%s)\n", marker, acc.Username, acc.UUID)
	}
	return sb.String()
}

// editAccounts loads the accounts, applies edit and saves them, exiting on any error
func editAccounts(edit func(accounts *account.Accounts) error) {
	accounts, err := account.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := edit(accounts); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := accounts.Save(); err != nil {
		fmt.Printf("Failed to save accounts: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountAddCmd, accountRemoveCmd, accountSelectCmd, accountListCmd)

	accountAddCmd.Flags().Bool("select", false, "Select the new account")
	_ = viper.BindPFlag("account.add.select", accountAddCmd.Flags().Lookup("select"))
}
