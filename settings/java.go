package settings

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/launch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var javaCmd = &cobra.Command{
	Use:   "java [path]",
	Short: "Set the Java executable and arguments used to launch, globally or for one instance",
	Long: `Set the Java executable and arguments used to launch, globally or for one instance.
With no path and no flags, the Java that would be used is shown.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		instName := viper.GetString("settings.instance")
		argsChanged := cmd.Flags().Changed("arguments")
		javaArgs := viper.GetString("settings.java.arguments")

		if len(args) == 0 && !argsChanged {
			showJava(cmd, instName)
			return
		}

		var path string
		if len(args) > 0 {
			path = args[0]
			if path != "" {
				if _, err := exec.LookPath(path); err != nil {
					fmt.Printf("%s is not an executable: %v\n", path, err)
					os.Exit(1)
				}
			}
		}

		if instName != "" {
			inst := cmdshared.LoadInstance(cmd.Context(), instName)
			if len(args) > 0 {
				inst.Launcher.JavaPath = path
			}
			if argsChanged {
				inst.Launcher.JavaArguments = javaArgs
			}
			if err := inst.Save(); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Printf("Java settings of %s updated\n", inst.Name())
			return
		}

		err := updateConfig(func(cfg map[string]interface{}) error {
			if len(args) > 0 {
				setKey(cfg, "java.path", emptyToNil(path))
			}
			if argsChanged {
				setKey(cfg, "java.arguments", emptyToNil(javaArgs))
			}
			return nil
		})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Java settings updated")
	},
}

func showJava(cmd *cobra.Command, instName string) {
	var javaPath, javaArgs string
	if instName != "" {
		inst := cmdshared.LoadInstance(cmd.Context(), instName)
		javaPath = launch.JavaExecutable(inst.Launcher.JavaPath)
		javaArgs = inst.Launcher.JavaArguments
	} else {
		javaPath = launch.JavaExecutable("")
	}
	if javaArgs == "" {
		javaArgs = viper.GetString("java.arguments")
	}
	fmt.Printf("Java: %s\n", javaPath)
	if javaArgs != "" {
		fmt.Printf("Arguments: %s\n", javaArgs)
	}
	info, err := launch.DetectJava(cmd.Context(), javaPath)
	if err != nil {
		fmt.Printf("Could not run Java: %v\n", err)
		return
	}
	bits := "32-bit"
	if info.Is64Bit {
		bits = "64-bit"
	}
	fmt.Printf("Version: %s (%s)\n", info.Version, bits)
}

func emptyToNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func init() {
	settingsCmd.AddCommand(javaCmd)

	javaCmd.Flags().String("arguments", "", "Extra arguments passed to Java")
	_ = viper.BindPFlag("settings.java.arguments", javaCmd.Flags().Lookup("arguments"))
}
