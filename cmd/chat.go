package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"profile-qa/internal/rag"
)

const quitKeyword = "quit"

func chatCMD(cfgPath *string) *cobra.Command {
	var username string
	chat := &cobra.Command{
		Use:   "chat",
		Short: "Ask repeated questions about one GitHub user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, false)
			if err != nil {
				return err
			}
			gh, pipeline, err := newPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), os.Stdin, os.Stdout, username, gh, pipeline)
		},
	}
	chat.Flags().StringVarP(&username, "username", "u", "", "GitHub username (prompted when empty)")
	return chat
}

// runChat fetches the user's chunks once and answers questions read from in
// until the quit keyword or EOF.
func runChat(ctx context.Context, in io.Reader, out io.Writer, username string, fetcher rag.ChunkFetcher, r *rag.RAG) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Welcome to the GitHub Profile QA Bot!")
	if username == "" {
		fmt.Fprint(out, "Enter GitHub username: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		username = strings.TrimSpace(scanner.Text())
	}

	fmt.Fprintf(out, "\nFetching GitHub data for user: %s...\n", username)
	chunks, err := fetcher.FetchChunks(ctx, username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Error fetching GitHub user")
		fmt.Fprintln(out, "Failed to fetch user data. Exiting...")
		return nil
	}
	if len(chunks) == 0 {
		fmt.Fprintln(out, "Failed to fetch user data. Exiting...")
		return nil
	}

	fmt.Fprintln(out, "\nGitHub user data loaded! You can now ask questions about this user.")
	fmt.Fprintf(out, "(Type '%s' to exit)\n", quitKeyword)

	for {
		fmt.Fprint(out, "\nEnter your question: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(question, quitKeyword) {
			return nil
		}
		if question == "" {
			continue
		}

		fmt.Fprintln(out, "\nSearching for answer...")
		answer, err := r.Ask(ctx, chunks, question)
		if err != nil {
			fmt.Fprintf(out, "\nAn error occurred while generating the answer: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "\nAnswer:", answer.Text)
	}
}
