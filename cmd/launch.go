package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/packlaunch/packlaunch/account"
	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/launch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:     "launch <instance>",
	Short:   "Launch an instance",
	Aliases: []string{"play", "run"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])

		var acc *account.Account
		if !inst.IsServer() {
			accounts, err := account.Load()
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			acc, err = launchAccount(accounts, inst, viper.GetString("launch.account"))
			if err != nil {
				if errors.Is(err, account.ErrNoneSelected) {
					fmt.Println("No account selected; add one with account add <username>")
				} else {
					fmt.Println(err)
				}
				os.Exit(1)
			}
		}

		opts, err := launch.Prepare(ctx, inst, acc)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if viper.GetBool("launch.dry-run") {
			c, err := launch.Command(ctx, inst, opts)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Println(strings.Join(launch.Redact(c.Args, acc), " "))
			return
		}

		if acc != nil {
			fmt.Printf("Launching %s as %s...\n", inst.Name(), acc.Username)
		} else {
			fmt.Printf("Launching %s...\n", inst.Name())
		}
		res, err := launch.Run(ctx, inst, opts)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Played for %s\n", res.Duration.Round(time.Second))
		if res.ExitCode != 0 {
			fmt.Printf("The game exited with code %d\n", res.ExitCode)
			os.Exit(res.ExitCode)
		}
	},
}

// launchAccount picks the account to play as: the one named on the command line, then the instance's own
// account, then the selected account
func launchAccount(accounts *account.Accounts, inst *instance.Instance, name string) (*account.Account, error) {
	if name == "" {
		name = inst.Launcher.Account
	}
	if name != "" {
		return accounts.Find(name)
	}
	return accounts.Current()
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().String("account", "", "The account to play as, instead of the selected one")
	_ = viper.BindPFlag("launch.account", launchCmd.Flags().Lookup("account"))
	launchCmd.Flags().Bool("dry-run", false, "Print the launch command instead of running it")
	_ = viper.BindPFlag("launch.dry-run", launchCmd.Flags().Lookup("dry-run"))
}
