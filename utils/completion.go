package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// shell knows how to generate completions for one shell and, where possible, how to load them on startup
type shell struct {
	file     string
	generate func(root *cobra.Command, w io.Writer) error
	// profile finds the startup script to add the source line to; nil means the user has to install the file
	profile func() (string, error)
	newline string
}

var shells = map[string]shell{
	"bash": {
		file: "completion.sh",
		generate: func(root *cobra.Command, w io.Writer) error {
			return root.GenBashCompletionV2(w, true)
		},
		profile: bashProfile,
		newline: "\n",
	},
	"powershell": {
		file:     "completion.ps1",
		generate: (*cobra.Command).GenPowerShellCompletionWithDesc,
		profile:  powershellProfile,
		newline:  "\r\n",
	},
	"zsh": {
		file:     "completion.zsh",
		generate: (*cobra.Command).GenZshCompletion,
	},
	"fish": {
		file: "completion.fish",
		generate: func(root *cobra.Command, w io.Writer) error {
			return root.GenFishCompletion(w, true)
		},
	},
}

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion <bash|powershell|zsh|fish>",
	Short: "Install shell completions for packlaunch",
	Long: `Install shell completions for packlaunch.
Bash and PowerShell completions are loaded from your profile; zsh and fish completions are saved for you to
put in place. Use --source to print them instead.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bash", "powershell", "zsh", "fish"},
	Run: func(cmd *cobra.Command, args []string) {
		sh := shells[args[0]]
		if viper.GetBool("utils.completion.source") {
			if err := sh.generate(cmd.Root(), os.Stdout); err != nil {
				fmt.Printf("Error generating completion file: %s\n", err)
				os.Exit(1)
			}
			return
		}

		file, err := saveCompletion(cmd.Root(), sh)
		if err != nil {
			fmt.Printf("Error saving completion file: %s\n", err)
			os.Exit(1)
		}
		if sh.profile == nil {
			fmt.Println("Completions saved to " + file)
			fmt.Printf("You need to put this file where %s loads completions from manually!\n", args[0])
			return
		}
		profile, err := sh.profile()
		if err != nil {
			fmt.Printf("Failed to get profile location: %s\n", err)
			os.Exit(1)
		}
		added, err := addSourceLine(profile, ". "+file, sh.newline)
		if err != nil {
			fmt.Printf("Failed to update %s: %s\n", profile, err)
			os.Exit(1)
		}
		if !added {
			fmt.Println("Completions already installed!")
			return
		}
		fmt.Println("Completions installed! Restart your shell to load them.")
	},
}

// saveCompletion writes the completion script into the launcher data directory and returns its path as the shell
// will see it
func saveCompletion(root *cobra.Command, sh shell) (string, error) {
	dir, err := core.GetLauncherDataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := sh.generate(root, &buf); err != nil {
		return "", err
	}
	file := filepath.Join(dir, sh.file)
	if err := core.WriteFileAtomic(file, buf.Bytes()); err != nil {
		return "", err
	}
	if runtime.GOOS == "windows" && sh.file == "completion.sh" {
		// Bash on Windows is Cygwin/MSYS2, which wants a POSIX-style path
		return cygpath(file)
	}
	return file, nil
}

// addSourceLine appends line to the profile unless it is already there, reporting whether it was added
func addSourceLine(profile string, line string, newline string) (bool, error) {
	data, err := os.ReadFile(profile)
	if err == nil && strings.Contains(string(data), line) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(profile), os.ModePerm); err != nil {
		return false, err
	}
	f, err := os.OpenFile(profile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	if _, err := f.WriteString(newline + line + newline); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}

func bashProfile() (string, error) {
	// $HOME rather than os.UserHomeDir, for Cygwin/MSYS2
	home := os.Getenv("HOME")
	if home == "" {
		return "", fmt.Errorf("$HOME is not set")
	}
	return filepath.Join(home, ".bashrc"), nil
}

// powershellProfile asks PowerShell for $PROFILE, which isn't an environment variable
func powershellProfile() (string, error) {
	out, err := runQuiet("powershell.exe", "-NoProfile", "-NonInteractive", "-Command", "$PROFILE")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func cygpath(path string) (string, error) {
	out, err := runQuiet("cygpath", path)
	if err != nil {
		return "", fmt.Errorf("failed to convert path to POSIX path (run this in the Cygwin/MSYS2 shell): %w", err)
	}
	return strings.TrimSpace(out), nil
}

func runQuiet(name string, args ...string) (string, error) {
	exe, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	var stdout bytes.Buffer
	cmd := exec.Command(exe, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func init() {
	utilsCmd.AddCommand(completionCmd)

	completionCmd.Flags().Bool("source", false, "Output the source of the commands to be installed, rather than installing them")
	_ = viper.BindPFlag("utils.completion.source", completionCmd.Flags().Lookup("source"))
}
