package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"bookchain/internal/config"
	"bookchain/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Variables to hold flag values
	setRPCURL        string
	setChainID       uint64
	setMembership    string
	setListing       string
	setBooking       string
	setAccessNFT     string
	setDecimals      int
	setCurrency      string
	setPollInterval  string
	setMembershipFee string
)

type configEntry struct {
	key   string
	value string
}

// configEntries lists the configuration in display order
func configEntries(cfg *config.Config) []configEntry {
	return []configEntry{
		{"rpc-url", cfg.RPCURL},
		{"chain-id", strconv.FormatUint(cfg.ChainID, 10)},
		{"membership-address", cfg.MembershipAddress},
		{"listing-address", cfg.ListingAddress},
		{"booking-address", cfg.BookingAddress},
		{"access-nft-address", cfg.AccessNFTAddress},
		{"accepted-token", cfg.AcceptedToken},
		{"token-decimals", strconv.Itoa(cfg.TokenDecimals)},
		{"membership-amount", cfg.MembershipAmount},
		{"currency-symbol", cfg.CurrencySymbol},
		{"poll-interval", cfg.PollInterval},
		{"log-level", cfg.LogLevel},
		{"log-file", cfg.LogFile},
		{"keystore-dir", cfg.KeystoreDir},
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bookchain configuration",
	Long:  "View and update the RPC endpoint, chain id and contract addresses",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get configuration value",
	Long:  "Display a specific configuration value or the effective configuration (file, .env and environment)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := configEntries(globalConfig)

		// If no argument is provided, show all config
		if len(args) == 0 {
			fmt.Println("Current configuration:")
			for _, e := range entries {
				value := e.value
				if value == "" {
					value = "(not set)"
				}
				fmt.Printf("%-20s %s\n", e.key+":", value)
			}
			return nil
		}

		for _, e := range entries {
			if e.key == args[0] {
				fmt.Println(e.value)
				return nil
			}
		}
		return fmt.Errorf("unknown configuration key: %s", args[0])
	},
}

// applyConfigFlags copies changed flags onto cfg and reports what changed
func applyConfigFlags(cmd *cobra.Command, cfg *config.Config) bool {
	flags := cmd.Flags()
	updated := false

	setStr := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			fmt.Printf("%s updated: %q -> %q\n", name, *dst, v)
			*dst = v
			updated = true
		}
	}

	setStr("rpc-url", &cfg.RPCURL, setRPCURL)
	setStr("membership", &cfg.MembershipAddress, setMembership)
	setStr("listing", &cfg.ListingAddress, setListing)
	setStr("booking", &cfg.BookingAddress, setBooking)
	setStr("access-nft", &cfg.AccessNFTAddress, setAccessNFT)
	setStr("currency", &cfg.CurrencySymbol, setCurrency)
	setStr("poll-interval", &cfg.PollInterval, setPollInterval)
	setStr("membership-amount", &cfg.MembershipAmount, setMembershipFee)

	if flags.Changed("chain-id") {
		fmt.Printf("chain-id updated: %d -> %d\n", cfg.ChainID, setChainID)
		cfg.ChainID = setChainID
		updated = true
	}
	if flags.Changed("decimals") {
		fmt.Printf("decimals updated: %d -> %d\n", cfg.TokenDecimals, setDecimals)
		cfg.TokenDecimals = setDecimals
		updated = true
	}

	return updated
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	Long:  "Update configuration settings like the RPC endpoint and contract addresses",
	Example: `  bookchain config set --rpc-url http://127.0.0.1:8545 --chain-id 31337
  bookchain config set --listing 0x5FbDB2315678afecb367f032d93F642f64180aa3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if !applyConfigFlags(cmd, cfg) {
			fmt.Println("No changes were made to the configuration.")
			return nil
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := config.SaveGlobalConfig(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Println("Configuration updated successfully.")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  "Create a new configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetGlobalConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		// Check if config file exists
		if _, err := os.Stat(configPath); err == nil {
			fmt.Println("Configuration file already exists.")
			fmt.Println("Use 'bookchain config set' to modify existing configuration.")
			return nil
		}

		cfg := config.Default()
		applyConfigFlags(cmd, cfg)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := config.SaveGlobalConfig(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		fmt.Println("Configuration initialized successfully.")
		fmt.Printf("Configuration file created at: %s\n", configPath)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show configuration file paths",
	Long:  "Display paths to the configuration file, wallet connection, keystore and log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		globalConfigDir, err := config.GetGlobalConfigDir()
		if err != nil {
			return err
		}
		keystoreDir, err := globalConfig.KeystorePath()
		if err != nil {
			return err
		}

		paths := []struct {
			name string
			path string
		}{
			{"Config file", filepath.Join(globalConfigDir, "config.json")},
			{"Wallet connection", models.NewWalletStore(globalConfigDir).ConnectionFile},
			{"Keystore", keystoreDir},
			{"TUI log file", filepath.Join(globalConfigDir, "bookchain.log")},
		}

		fmt.Println("Global config paths:")
		fmt.Printf("- Config directory: %s\n", globalConfigDir)
		for _, p := range paths {
			fmt.Printf("- %s: %s\n", p.name, p.path)
		}

		// Check existence
		fmt.Println("\nExistence status:")
		for _, p := range paths {
			if _, err := os.Stat(p.path); os.IsNotExist(err) {
				fmt.Printf("- %s: Does not exist\n", p.name)
			} else {
				fmt.Printf("- %s: Exists\n", p.name)
			}
		}

		return nil
	},
}

var configImportDeploymentCmd = &cobra.Command{
	Use:   "import-deployment <file>",
	Short: "Import contract addresses from a deployment manifest",
	Long:  "Read membership, listing, booking and accessNft addresses from a JSON or YAML manifest such as deployed.local.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := models.LoadDeployment(args[0])
		if err != nil {
			return fmt.Errorf("error reading deployment manifest: %w", err)
		}

		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.SetDeployment(*deployment)
		applyConfigFlags(cmd, cfg)

		if err := config.SaveGlobalConfig(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		named := deployment.Named()
		for _, name := range []string{models.ContractMembership, models.ContractListing, models.ContractBooking, models.ContractAccessNFT} {
			addr := named[name]
			if addr == "" {
				addr = "(not set)"
			}
			fmt.Printf("%-12s %s\n", name+":", addr)
		}
		fmt.Println("Deployment imported successfully.")
		return nil
	},
}

var configVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the configured deployment",
	Long:  "Check that the endpoint serves the configured chain and that code exists at every configured contract address",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		report, verifyErr := s.service.VerifyDeployment(cmd.Context())
		if report != nil {
			fmt.Printf("Chain ID: %d (expected %d)\n", report.ChainID, s.cfg.ChainID)
			for _, c := range report.Contracts {
				switch {
				case !c.Configured:
					fmt.Printf("  %-12s not configured\n", c.Name)
				case c.CodeSize == 0:
					color.Red("  %-12s %s no code\n", c.Name, c.Address.Hex())
				default:
					color.Green("  %-12s %s %d bytes\n", c.Name, c.Address.Hex(), c.CodeSize)
				}
			}
		}
		if verifyErr != nil {
			return verifyErr
		}

		fmt.Println("Deployment verified.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configImportDeploymentCmd)
	configCmd.AddCommand(configVerifyCmd)

	for _, c := range []*cobra.Command{configSetCmd, configInitCmd} {
		c.Flags().StringVar(&setRPCURL, "rpc-url", "", "Set JSON-RPC endpoint")
		c.Flags().Uint64Var(&setChainID, "chain-id", 0, "Set expected chain id")
		c.Flags().StringVar(&setMembership, "membership", "", "Set membership contract address")
		c.Flags().StringVar(&setListing, "listing", "", "Set listing contract address")
		c.Flags().StringVar(&setBooking, "booking", "", "Set booking contract address")
		c.Flags().StringVar(&setAccessNFT, "access-nft", "", "Set access token contract address")
		c.Flags().IntVar(&setDecimals, "decimals", 0, "Set token decimals")
		c.Flags().StringVar(&setCurrency, "currency", "", "Set currency symbol")
		c.Flags().StringVar(&setPollInterval, "poll-interval", "", "Set block polling interval, e.g. 4s")
		c.Flags().StringVar(&setMembershipFee, "membership-amount", "", "Set default membership payment")
	}

	configImportDeploymentCmd.Flags().StringVar(&setRPCURL, "rpc-url", "", "Also set JSON-RPC endpoint")
	configImportDeploymentCmd.Flags().Uint64Var(&setChainID, "chain-id", 0, "Also set expected chain id")
}
