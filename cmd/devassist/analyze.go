package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/agusespa/devassist/internal/client"
	"github.com/agusespa/devassist/internal/highlight"
	"github.com/agusespa/devassist/internal/session"
	"github.com/agusespa/devassist/internal/types"
	"github.com/agusespa/devassist/pkg/spinner"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var clipboardWriteAll = clipboard.WriteAll

var renderModes = []string{"plain", "terminal", "markdown"}

type analyzeOptions struct {
	server   string
	kind     string
	language string
	file     string
	render   string
	copy     bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Send a snippet to a devassist server and print the result",
		Long: `Reads a snippet from --file or stdin, posts it to the server's /analyze
endpoint and prints the result.

Analysis types: review, explain, optimize, refactor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:8080", "Base URL of the devassist server")
	cmd.Flags().StringVarP(&opts.kind, "type", "t", "review", "Analysis type (review, explain, optimize, refactor)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", types.DefaultLanguage, "Language of the snippet")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the snippet from this file instead of stdin")
	cmd.Flags().StringVar(&opts.render, "render", "plain", "Output rendering (plain, terminal, markdown)")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the result to the clipboard")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	kind, err := types.ParseAnalysisKind(opts.kind)
	if err != nil {
		return err
	}
	if !slices.Contains(renderModes, opts.render) {
		return fmt.Errorf("unsupported render mode %q (supported: %s)", opts.render, strings.Join(renderModes, ", "))
	}

	code, err := readSnippet(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}

	sess := session.New(
		client.New(opts.server, nil),
		session.WithLanguage(opts.language),
		session.WithHighlighter(highlight.ByName(opts.render)),
	)
	sess.SetCode(code)

	sp := spinner.New(cmd.ErrOrStderr(), fmt.Sprintf("Running %s...", kind))
	sess.OnChange(func(state session.State) {
		sp.Follow(state.Phase == session.Loading)
	})

	ticket := sess.Submit(cmd.Context(), kind)
	<-ticket.Done()
	sp.Stop()

	state := sess.State()
	if state.Phase == session.Error {
		fmt.Fprintln(cmd.ErrOrStderr(), state.Result)
		return reportedError{msg: strings.TrimPrefix(state.Result, session.ErrorPrefix)}
	}

	fmt.Fprintln(cmd.OutOrStdout(), sess.Rendered())

	if opts.copy {
		if err := sess.Copy(clipboardWriteAll); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
	}
	return nil
}

func readSnippet(stdin io.Reader, file string) (string, error) {
	var data []byte
	var err error
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snippet: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no code to analyze")
	}
	return string(data), nil
}
