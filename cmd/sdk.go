package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackbird-ai/blackbird/internal/bridge"
	"github.com/blackbird-ai/blackbird/internal/library"
)

func newSDKCmd() *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "sdk",
		Short: "Print the storage SDK script injected into generated apps",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(bridge.Script(appID))
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "preview", "app identity the SDK is bound to")

	return cmd
}

// injectSDK prepends the app's SDK script so exported files can use the
// storage API standalone.
func injectSDK(app *library.App) string {
	script := bridge.Script(app.ID)
	html := app.Content

	lower := strings.ToLower(html)
	if pos := strings.Index(lower, "<head>"); pos >= 0 {
		at := pos + len("<head>")
		return html[:at] + "\n" + script + html[at:]
	}
	return script + "\n" + html
}
