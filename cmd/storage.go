package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackbird-ai/blackbird/internal/bridge"
)

// newStorageCmd exposes an app's isolated key/value store for inspection
// and scripting. Every operation goes through the same bridge the generated
// apps use, so this is also the manual test surface for namespace isolation.
func newStorageCmd() *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect and edit an app's isolated storage",
	}
	cmd.PersistentFlags().StringVar(&appID, "app", "", "app identity owning the namespace (required)")
	cmd.MarkPersistentFlagRequired("app")

	attach := func() (*bridge.AppStore, error) {
		cfg := initConfig()
		b := bridge.New(filepath.Join(cfg.ResolveDataDir(), "app_data"))
		return b.Attach(appID)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := attach()
			if err != nil {
				return err
			}
			v, ok, err := s.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q not set", args[0])
			}
			fmt.Println(v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := attach()
			if err != nil {
				return err
			}
			return s.Set(args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := attach()
			if err != nil {
				return err
			}
			return s.Delete(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List stored keys in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := attach()
			if err != nil {
				return err
			}
			keys, err := s.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every key in the app's namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := attach()
			if err != nil {
				return err
			}
			if err := s.Clear(); err != nil {
				return err
			}
			fmt.Println("Cleared namespace", s.Namespace())
			return nil
		},
	})

	return cmd
}
