package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Guides you through setting up blackbird: choose a provider, enter its endpoint or API key, and save the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Welcome to blackbird configuration wizard!")
	fmt.Println()

	providers := []string{"blackbird", "openai", "anthropic", "custom", "ollama"}
	fmt.Println("Available providers:")
	for i, p := range providers {
		fmt.Printf("  %d. %s\n", i+1, p)
	}
	fmt.Printf("\nSelect provider (1-%d) [1]: ", len(providers))
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	selectedIdx := 0
	if input != "" {
		n := 0
		for _, c := range input {
			if c >= '0' && c <= '9' {
				n = n*10 + int(c-'0')
			}
		}
		if n >= 1 && n <= len(providers) {
			selectedIdx = n - 1
		}
	}
	providerName := providers[selectedIdx]
	fmt.Printf("Selected: %s\n\n", providerName)

	entry := map[string]any{}

	switch providerName {
	case "blackbird", "custom":
		fmt.Printf("Enter endpoint URL for %s: ", providerName)
		endpoint, _ := reader.ReadString('\n')
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			return fmt.Errorf("endpoint cannot be empty")
		}
		entry["endpoint"] = endpoint
		if providerName == "blackbird" {
			key, err := readSecret(reader, "Enter API key (optional): ")
			if err != nil {
				return err
			}
			if key != "" {
				entry["api_key"] = key
			}
		}
	case "openai", "anthropic":
		key, err := readSecret(reader, fmt.Sprintf("Enter API key for %s: ", providerName))
		if err != nil {
			return err
		}
		if key == "" {
			return fmt.Errorf("API key cannot be empty")
		}
		entry["api_key"] = key
	case "ollama":
		entry["enabled"] = true
		fmt.Print("Enter model name [gpt-oss:20b]: ")
		model, _ := reader.ReadString('\n')
		if model = strings.TrimSpace(model); model != "" {
			entry["model"] = model
		}
	}

	configData := map[string]any{
		"provider": providerName,
		"providers": map[string]any{
			providerName: entry,
		},
	}

	data, err := yaml.Marshal(configData)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home dir: %w", err)
	}
	configDir := filepath.Join(home, ".config", "blackbird")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("\nConfig file already exists at %s\n", configPath)
		fmt.Print("Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("\nConfig saved to %s\n", configPath)
	fmt.Println("You can now run: blackbird generate \"a pomodoro timer\"")
	return nil
}

// readSecret reads a credential without echoing it when stdin is a
// terminal, falling back to a plain line read otherwise (pipes, CI).
func readSecret(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line), nil
}
