package settings

import (
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// memoryFlags maps the memory command's flags to their config keys
var memoryFlags = []struct {
	flag string
	key  string
}{
	{"initial", "memory.initial"},
	{"maximum", "memory.maximum"},
	{"permgen", "memory.permgen"},
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Set how much memory (in MB) Minecraft is given, globally or for one instance",
	Long: `Set how much memory (in MB) Minecraft is given, globally or for one instance.
A value of 0 removes the setting. With no flags, the current settings are shown.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		changed := make(map[string]int)
		for _, f := range memoryFlags {
			if cmd.Flags().Changed(f.flag) {
				v, _ := cmd.Flags().GetInt(f.flag)
				if v < 0 {
					fmt.Printf("--%s can't be negative\n", f.flag)
					os.Exit(1)
				}
				changed[f.key] = v
			}
		}
		if err := validateMemory(changed); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		instName := viper.GetString("settings.instance")
		if instName != "" {
			inst := cmdshared.LoadInstance(cmd.Context(), instName)
			if len(changed) == 0 {
				fmt.Printf("Initial: %d MB\nMaximum: %d MB\nPermGen: %d MB\n",
					inst.Launcher.InitialMemory, inst.Launcher.MaximumMemory, inst.Launcher.PermGen)
				if inst.Launcher.RequiredMemory > 0 {
					fmt.Printf("The pack needs at least %d MB\n", inst.Launcher.RequiredMemory)
				}
				return
			}
			for key, v := range changed {
				switch key {
				case "memory.initial":
					inst.Launcher.InitialMemory = v
				case "memory.maximum":
					inst.Launcher.MaximumMemory = v
				case "memory.permgen":
					inst.Launcher.PermGen = v
				}
			}
			if err := inst.Save(); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Printf("Memory settings of %s updated\n", inst.Name())
			return
		}

		if len(changed) == 0 {
			fmt.Printf("Initial: %d MB\nMaximum: %d MB\nPermGen: %d MB\n",
				viper.GetInt("memory.initial"), viper.GetInt("memory.maximum"), viper.GetInt("memory.permgen"))
			return
		}
		err := updateConfig(func(cfg map[string]interface{}) error {
			for key, v := range changed {
				if v == 0 {
					setKey(cfg, key, nil)
				} else {
					setKey(cfg, key, int64(v))
				}
			}
			return nil
		})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Memory settings updated")
	},
}

// validateMemory rejects an initial heap bigger than the maximum when both are being set
func validateMemory(changed map[string]int) error {
	initial, hasInitial := changed["memory.initial"]
	maximum, hasMaximum := changed["memory.maximum"]
	if !hasInitial {
		initial = viper.GetInt("memory.initial")
	}
	if !hasMaximum {
		maximum = viper.GetInt("memory.maximum")
	}
	if initial > 0 && maximum > 0 && initial > maximum {
		return fmt.Errorf("initial memory (%d MB) can't be more than the maximum (%d MB)", initial, maximum)
	}
	return nil
}

func init() {
	settingsCmd.AddCommand(memoryCmd)

	memoryCmd.Flags().Int("initial", 0, "Initial heap size (-Xms)")
	memoryCmd.Flags().Int("maximum", 0, "Maximum heap size (-Xmx)")
	memoryCmd.Flags().Int("permgen", 0, "PermGen or Metaspace size")

	settingsCmd.PersistentFlags().String("instance", "", "Change the settings of this instance instead of the global ones")
	_ = viper.BindPFlag("settings.instance", settingsCmd.PersistentFlags().Lookup("instance"))
}
