package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "packlaunch",
	Short: "A command line launcher for Minecraft modpacks",
}

// Execute starts the root command for packlaunch. Interrupting the process cancels the command's context, so
// downloads stop cleanly and a running game is killed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = core.Log.Sync()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Add adds a new command as a subcommand to packlaunch
func Add(newCommand *cobra.Command) {
	rootCmd.AddCommand(newCommand)
}

// wordSepNormalizeFunc lets --data_dir stand in for --data-dir
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetGlobalNormalizationFunc(wordSepNormalizeFunc)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.toml in the data directory)")

	rootCmd.PersistentFlags().String("data-dir", "", "The directory holding instances, libraries, assets and accounts")
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output, including unredacted launch arguments")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().BoolP("non-interactive", "y", false, "Accept the default answer to every prompt")
	_ = viper.BindPFlag("non-interactive", rootCmd.PersistentFlags().Lookup("non-interactive"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// PACKLAUNCH_DATA_DIR, PACKLAUNCH_CURSEFORGE_API_KEY and so on
	viper.SetEnvPrefix("packlaunch")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := core.InitLogging(viper.GetBool("verbose")); err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		dataDir, err := core.GetLauncherDataDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(dataDir)
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("Failed to read config file: %v\n", err)
			os.Exit(1)
		}
		return
	}
	core.Log.Debug("using config file", zap.String("path", viper.ConfigFileUsed()))
}
