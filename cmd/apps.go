package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackbird-ai/blackbird/internal/library"
)

// Library browsing never needs a provider: these are the read-only paths
// that stay usable with no credentials configured.
func newAppsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Browse the saved app library",
	}
	cmd.AddCommand(newAppsListCmd())
	cmd.AddCommand(newAppsShowCmd())
	cmd.AddCommand(newAppsDeleteCmd())
	cmd.AddCommand(newAppsExportCmd())
	return cmd
}

func openLibrary() (*library.Store, error) {
	cfg := initConfig()
	return library.Open(library.DefaultDBPath(cfg.ResolveDataDir()))
}

func newAppsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved apps, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			apps, err := store.Apps()
			if err != nil {
				return err
			}
			if len(apps) == 0 {
				fmt.Println("No saved apps yet. Try: blackbird generate \"a pomodoro timer\"")
				return nil
			}
			for _, a := range apps {
				fmt.Printf("%s  %-30s  %s  [%s]\n",
					a.ID, a.Title, a.CreatedAt.Local().Format("2006-01-02 15:04"),
					strings.Join(a.Tags, ", "))
			}
			return nil
		},
	}
}

func newAppsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved app's HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			app, err := store.App(args[0])
			if err != nil {
				return err
			}
			fmt.Println(app.Content)
			return nil
		},
	}
}

func newAppsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteApp(args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}

func newAppsExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved app, with the SDK injected, to an HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			app, err := store.App(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = safeFilename(app.Title) + ".html"
			}
			if err := os.WriteFile(out, []byte(injectSDK(app)), 0o644); err != nil {
				return err
			}
			fmt.Println("Exported to", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default derived from the title)")

	return cmd
}

func safeFilename(title string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(title) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ', c == '-', c == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}
