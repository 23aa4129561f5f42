package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/constants"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kwforge configuration",
		Long: `Configuration management commands.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the dashboard connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup.

The configuration is saved to ~/.config/kwforge/config.
Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()

			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or 'config show' to view it.")
					return nil
				}
			}

			fmt.Println("KeywordForge Configuration Setup")
			fmt.Println("================================")
			fmt.Println()

			reader := bufio.NewReader(os.Stdin)

			var keyInput string
			for keyInput == "" {
				fmt.Print("API key (required): ")
				input, _ := reader.ReadString('\n')
				keyInput = strings.TrimSpace(input)
				if keyInput == "" {
					fmt.Println("  Error: API key is required")
				}
			}

			defaults := config.NewConfig()

			fmt.Printf("Dashboard URL [%s]: ", defaults.PlatformURL)
			urlInput, _ := reader.ReadString('\n')
			urlInput = strings.TrimSpace(urlInput)
			if urlInput == "" {
				urlInput = defaults.PlatformURL
			}

			fmt.Print("Default project ID (optional): ")
			projectInput, _ := reader.ReadString('\n')
			projectInput = strings.TrimSpace(projectInput)

			pollSeconds := int(constants.DefaultPollInterval / time.Second)
			fmt.Printf("Watch poll interval seconds [%d]: ", pollSeconds)
			pollInput, _ := reader.ReadString('\n')
			pollInput = strings.TrimSpace(pollInput)
			if pollInput != "" {
				if v, err := strconv.Atoi(pollInput); err == nil && v > 0 {
					pollSeconds = v
				}
			}

			fmt.Println()
			fmt.Print("Configure proxy? [y/N]: ")
			proxyInput, _ := reader.ReadString('\n')
			proxyInput = strings.TrimSpace(strings.ToLower(proxyInput))

			proxyMode := "no-proxy"
			var proxyHost, proxyUser string
			var proxyPort int

			if proxyInput == "y" || proxyInput == "yes" {
				fmt.Println()
				fmt.Println("Proxy modes: no-proxy, system, basic, ntlm")
				fmt.Print("Proxy mode [system]: ")
				modeInput, _ := reader.ReadString('\n')
				proxyMode = strings.TrimSpace(modeInput)
				if proxyMode == "" {
					proxyMode = "system"
				}

				if proxyMode == "basic" || proxyMode == "ntlm" {
					fmt.Print("Proxy host: ")
					hostInput, _ := reader.ReadString('\n')
					proxyHost = strings.TrimSpace(hostInput)

					fmt.Print("Proxy port [8080]: ")
					portInput, _ := reader.ReadString('\n')
					portInput = strings.TrimSpace(portInput)
					proxyPort = 8080
					if portInput != "" {
						if v, err := strconv.Atoi(portInput); err == nil && v > 0 {
							proxyPort = v
						}
					}

					fmt.Print("Proxy user (optional): ")
					userInput, _ := reader.ReadString('\n')
					proxyUser = strings.TrimSpace(userInput)
				}
			}

			cfg := &config.Config{
				PlatformURL:  urlInput,
				APIKey:       keyInput,
				ProjectID:    projectInput,
				PollInterval: time.Duration(pollSeconds) * time.Second,
				ProxyMode:    proxyMode,
				ProxyHost:    proxyHost,
				ProxyPort:    proxyPort,
				ProxyUser:    proxyUser,
			}

			if err := config.Save(cfg, configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			log.Info().Str("path", configPath).Msg("Configuration saved")

			fmt.Println()
			fmt.Printf("✓ Configuration saved to: %s\n", configPath)
			if proxyUser != "" {
				fmt.Println()
				fmt.Println("The proxy password is never stored. Set KWFORGE_PROXY_PASSWORD")
				fmt.Println("or enter it when prompted.")
			}
			fmt.Println()
			fmt.Println("Test your configuration with: kwforge config test")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration from:
  1. Configuration file (~/.config/kwforge/config)
  2. Environment variables (KWFORGE_API_KEY, KWFORGE_PLATFORM_URL, KWFORGE_PROJECT_ID)
  3. Command-line flags (--api-key, --platform-url, --project)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			configPath := cfgFile
			if configPath == "" {
				configPath, _ = config.DefaultConfigPath()
			}

			fmt.Println("Current Configuration")
			fmt.Println("=====================")
			fmt.Println()

			fmt.Println("Connection:")
			fmt.Printf("  Dashboard URL: %s\n", cfg.PlatformURL)
			if cfg.APIKey != "" {
				// Never echo any portion of the key.
				fmt.Printf("  API Key:       <set (%d chars)>\n", len(cfg.APIKey))
			} else {
				fmt.Println("  API Key:       <not set>")
			}
			if cfg.ProjectID != "" {
				fmt.Printf("  Project ID:    %s\n", cfg.ProjectID)
			} else {
				fmt.Println("  Project ID:    <not set>")
			}
			fmt.Println()

			fmt.Println("Watch:")
			fmt.Printf("  Poll Interval: %s\n", cfg.PollInterval)
			fmt.Println()

			fmt.Println("Proxy:")
			fmt.Printf("  Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Printf("  Host: %s\n", cfg.ProxyHost)
				fmt.Printf("  Port: %d\n", cfg.ProxyPort)
			}
			if cfg.ProxyUser != "" {
				fmt.Printf("  User: %s\n", cfg.ProxyUser)
			}
			if cfg.NoProxy != "" {
				fmt.Printf("  No-proxy: %s\n", cfg.NoProxy)
			}
			fmt.Println()

			fmt.Printf("Configuration file: %s\n", configPath)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("  (file does not exist - using defaults)")
			}

			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the dashboard connection",
		Long: `Fetch the processing-status snapshot for the configured project to
verify the API key, project ID, and network path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := requireProject(cfg); err != nil {
				return err
			}

			fmt.Println("Testing Dashboard Connection")
			fmt.Println("============================")
			fmt.Println()
			fmt.Printf("Dashboard URL: %s\n", cfg.PlatformURL)
			fmt.Printf("Project ID:    %s\n", cfg.ProjectID)
			fmt.Println()

			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			snap, err := client.FetchSnapshot(ctx, cfg.ProjectID)
			if err != nil {
				log.Error().Err(err).Msg("Connection test failed")
				fmt.Println("✗ Connection FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			fmt.Println("✓ Connection SUCCESSFUL")
			fmt.Printf("  Project status: %s\n", statusLine(snap))

			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
				fmt.Println("Default configuration path:")
			} else {
				fmt.Println("Configuration path (from --config flag):")
			}

			fmt.Printf("  %s\n", configPath)

			if info, err := os.Stat(configPath); err == nil {
				fmt.Println("Status: file exists")
				fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Status: file does not exist")
				fmt.Println("Create it with: kwforge config init")
			}

			return nil
		},
	}
}
