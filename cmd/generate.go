package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/blackbird-ai/blackbird/internal/extract"
	"github.com/blackbird-ai/blackbird/internal/library"
	"github.com/blackbird-ai/blackbird/internal/provider"
	"github.com/blackbird-ai/blackbird/internal/stream"
)

// pollInterval paces the consumer side of a generation. It controls output
// refresh only; the network runs on its own goroutine.
const pollInterval = 40 * time.Millisecond

func newGenerateCmd() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate an app from a prompt and save it to the library",
		Example: `  blackbird generate "a pomodoro timer with a progress ring"
  blackbird generate "make the timer count down" --model gpt-4o`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(strings.Join(args, " "), noSave)
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "print the result without saving it to the library")

	return cmd
}

func runGenerate(prompt string, noSave bool) error {
	cfg := initConfig()

	p, err := provider.Resolve(cfg)
	if err != nil {
		return err
	}

	store, err := library.Open(library.DefaultDBPath(cfg.ResolveDataDir()))
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := conversationHistory(store)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if term.IsTerminal(int(os.Stderr.Fd())) {
		if p.Streaming() {
			fmt.Fprintf(os.Stderr, "Generating with %s...\n", p.Name())
		} else {
			fmt.Fprintf(os.Stderr, "Waiting for %s (response arrives in one piece)...\n", p.Name())
		}
	}

	req := provider.NewChatRequest(history, prompt)
	events, err := p.Chat(ctx, req)
	if err != nil {
		return err
	}

	mgr := stream.NewManager()
	defer mgr.Shutdown()

	id := mgr.Open()
	go mgr.Consume(id, events)

	final, err := pollToEnd(ctx, mgr, id)
	if err != nil {
		return err
	}

	clean, tags := extract.Tags(final)
	title := extract.Title(clean)
	html := extract.HTMLContent(final)

	if noSave {
		return nil
	}

	if _, err := store.AddMessage("user", prompt, nil); err != nil {
		return err
	}
	if _, err := store.AddMessage("assistant", clean, tags); err != nil {
		return err
	}

	if html == "" {
		fmt.Fprintln(os.Stderr, "\nResponse contained no app; conversation saved.")
		return nil
	}

	app, err := store.SaveApp(title, html, tags)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nSaved %q (%s) tags=%s\n", app.Title, app.ID, strings.Join(app.Tags, ", "))
	return nil
}

// pollToEnd drains the session at pollInterval, echoing each new fragment,
// until the session reaches a terminal state. A Failed session becomes an
// error for the caller; the process itself never crashes on stream faults.
func pollToEnd(ctx context.Context, mgr *stream.Manager, id string) (string, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		res, err := mgr.Poll(id)
		if err != nil {
			return "", err
		}
		if res.New != "" {
			fmt.Print(res.New)
		}
		if res.Done() {
			fmt.Println()
			if res.State == stream.StateFailed {
				return "", fmt.Errorf("generation failed: %w (retry with the same prompt)", res.Cause)
			}
			return res.Text, nil
		}

		select {
		case <-ctx.Done():
			mgr.Close(id)
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// conversationHistory replays the saved conversation as provider messages.
func conversationHistory(store *library.Store) ([]provider.Message, error) {
	msgs, err := store.Messages()
	if err != nil {
		return nil, err
	}
	history := make([]provider.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "user":
			history = append(history, provider.Message{Role: provider.RoleUser, Content: m.Content})
		case "assistant":
			history = append(history, provider.Message{Role: provider.RoleAssistant, Content: m.Content})
		}
	}
	return history, nil
}
