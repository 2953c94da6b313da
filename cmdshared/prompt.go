package cmdshared

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// One reader for every prompt, so input buffered for one answer isn't lost to the next
var stdin = bufio.NewReader(os.Stdin)

// answer reads a line from stdin. In non-interactive mode it echoes def and returns it instead.
func answer(def string) string {
	if viper.GetBool("non-interactive") {
		fmt.Println(def + " (non-interactive mode)")
		return def
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		fmt.Printf("Failed to read answer: %v\n", err)
		os.Exit(1)
	}
	return strings.TrimSpace(line)
}

// PromptYesNo prints prompt and reports whether the answer was yes. Anything not starting with n counts as yes.
func PromptYesNo(prompt string) bool {
	fmt.Print(prompt)
	return !strings.HasPrefix(strings.ToLower(answer("Y")), "n")
}

// PromptString asks for a line of text, returning def if the answer is empty or in non-interactive mode
func PromptString(prompt string, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", prompt, def)
	} else {
		fmt.Printf("%s: ", prompt)
	}
	if a := answer(def); a != "" {
		return a
	}
	return def
}
