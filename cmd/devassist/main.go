package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devassist",
		Short: "AI-assisted code review, explanation, optimization and refactoring",
		Long: `devassist sends a code snippet to a language model and returns a review,
an explanation, optimization suggestions or a refactored version.

Examples:
  devassist serve --config config.yaml
  devassist analyze --type review --language go --file main.go
  cat app.py | devassist analyze --type explain --language python --render markdown`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
		newLanguagesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "devassist version %s\n", version)
		},
	}
}

// reportedError has already been shown to the user.
type reportedError struct {
	msg string
}

func (e reportedError) Error() string {
	return e.msg
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
