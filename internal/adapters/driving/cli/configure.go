package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively configure the embedding provider",
	Long: `Walks through setting up the embedding provider used by AddChunk and
Search. Leave the API key blank to use the deterministic local provider
instead of a remote one.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	cmd.Print("Embedding API key (blank to use the offline local provider): ")
	apiKey := readSecret(reader)
	cmd.Println()

	if apiKey == "" {
		dimensions := promptInt(cmd, reader, "Embedding dimensions", 384)
		if err := cfgStore.Set("embedding.api_key", ""); err != nil {
			return err
		}
		if err := cfgStore.Set("embedding.dimensions", dimensions); err != nil {
			return err
		}
		if err := cfgStore.Save(); err != nil {
			return fmt.Errorf("save configuration: %w", err)
		}
		cmd.Println("Configured for the local embedding provider.")
		return nil
	}

	cmd.Printf("Base URL [%s]: ", "https://api.cohere.ai/v1")
	baseURL := readLine(reader)
	cmd.Print("Model [embed-english-v3.0]: ")
	model := readLine(reader)
	if model == "" {
		model = "embed-english-v3.0"
	}
	dimensions := promptInt(cmd, reader, "Embedding dimensions", 1024)
	rateLimit := promptInt(cmd, reader, "Requests per second", 10)

	for key, value := range map[string]any{
		"embedding.api_key":               apiKey,
		"embedding.base_url":              baseURL,
		"embedding.model":                 model,
		"embedding.dimensions":            dimensions,
		"embedding.rate_limit_per_second": rateLimit,
	} {
		if err := cfgStore.Set(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	if err := cfgStore.Save(); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	cmd.Printf("Configured embedding provider %s (key %s)\n", model, maskAPIKey(apiKey))
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptInt(cmd *cobra.Command, reader *bufio.Reader, label string, defaultVal int) int {
	cmd.Printf("%s [%d]: ", label, defaultVal)
	input := readLine(reader)
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		return defaultVal
	}
	return val
}

// readSecret reads the API key without echoing it when stdin is a
// terminal, falling back to plain input when it is piped.
func readSecret(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(secret)
		}
	}
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
