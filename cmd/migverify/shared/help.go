package shared

import "strings"

// CLIHelp trims the indentation and surrounding blank lines from a command's
// long help text.
func CLIHelp(x string) string {
	return strings.TrimSpace(x)
}

// CLIExample indents every line of an example block the way cobra expects.
func CLIExample(x string) string {
	lines := strings.Split(strings.TrimSpace(x), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
