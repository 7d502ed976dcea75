package commands

import (
	"fmt"
	"os"
	"syscall"

	"bookchain/internal/config"
	"bookchain/internal/models"
	"bookchain/internal/util"
	"bookchain/internal/wallet"

	"github.com/charmbracelet/x/term"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	importKey  string
	watchOnly  bool
	skipSwitch bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage your wallet",
	Long:  "Create or import keystore accounts, connect an account and show the connection",
}

// openKeystore ensures the config directory exists and opens the keystore
func openKeystore() (*wallet.Keystore, *models.WalletStore, error) {
	globalConfigDir, err := config.GetGlobalConfigDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(globalConfigDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("error creating global config directory: %w", err)
	}

	keystoreDir, err := globalConfig.KeystorePath()
	if err != nil {
		return nil, nil, err
	}
	return wallet.Open(keystoreDir), models.NewWalletStore(globalConfigDir), nil
}

func connect(store *models.WalletStore, conn models.Connection) error {
	if err := store.SaveConnection(conn); err != nil {
		return fmt.Errorf("error saving wallet connection: %w", err)
	}
	mode := "signing"
	if conn.WatchOnly {
		mode = "watch-only"
	}
	fmt.Printf("Connected %s (%s)\n", conn.Address.Hex(), mode)
	return nil
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new account",
	Long:  "Generate a new key, encrypt it into the keystore and connect it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, store, err := openKeystore()
		if err != nil {
			return err
		}

		passphrase, err := wallet.NewPassphrase()
		if err != nil {
			return err
		}

		addr, err := ks.Create(passphrase)
		if err != nil {
			return err
		}
		color.Green("Created account %s\n", addr.Hex())

		if skipSwitch {
			return nil
		}
		return connect(store, models.Connection{Address: addr})
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a private key",
	Long:  "Import a hex-encoded private key into the keystore and connect it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, store, err := openKeystore()
		if err != nil {
			return err
		}

		key := importKey
		if key == "" {
			fmt.Print("Private key: ")
			keyBytes, err := term.ReadPassword(uintptr(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("error reading private key: %w", err)
			}
			fmt.Println() // Add a newline after password input
			key = string(keyBytes)
		}

		passphrase, err := wallet.NewPassphrase()
		if err != nil {
			return err
		}

		addr, err := ks.ImportHex(key, passphrase)
		if err != nil {
			return err
		}
		color.Green("Imported account %s\n", addr.Hex())

		if skipSwitch {
			return nil
		}
		return connect(store, models.Connection{Address: addr})
	},
}

var walletConnectCmd = &cobra.Command{
	Use:   "connect [address]",
	Short: "Connect an account",
	Long: `Connect a keystore account for signing, or any address with --watch for read-only use.
Without an address, the keystore accounts are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, store, err := openKeystore()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			accounts := ks.Accounts()
			if len(accounts) == 0 {
				fmt.Println("No accounts in keystore. Use 'bookchain wallet new' or 'bookchain wallet import'.")
				return nil
			}
			fmt.Println("Keystore accounts:")
			for _, a := range accounts {
				fmt.Printf("  %s\n", a.Hex())
			}
			return nil
		}

		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid address: %s", args[0])
		}
		addr := common.HexToAddress(args[0])

		if !watchOnly && !ks.Has(addr) {
			return fmt.Errorf("%s: %w (use --watch to connect read-only)", addr.Hex(), models.ErrAccountNotFound)
		}

		return connect(store, models.Connection{Address: addr, WatchOnly: watchOnly})
	},
}

var walletDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the current account",
	Long:  "Forget the connected account. Keys stay in the keystore.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openKeystore()
		if err != nil {
			return err
		}
		if err := store.ClearConnection(); err != nil {
			return fmt.Errorf("error clearing wallet connection: %w", err)
		}
		fmt.Println("Wallet disconnected")
		return nil
	},
}

var walletInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the connected account",
	Long:  "Display the connected account, the network it is used on and its membership status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		if s.conn == nil {
			fmt.Println("Connect wallet")
			return nil
		}

		mode := "signing"
		if s.conn.WatchOnly {
			mode = "watch-only"
		}
		fmt.Printf("Address:   %s (%s)\n", s.conn.Address.Hex(), util.ShortAddress(s.conn.Address))
		fmt.Printf("Mode:      %s\n", mode)

		chainID, err := s.client.ChainID(cmd.Context())
		if err != nil {
			return err
		}
		block, err := s.client.BlockNumber(cmd.Context())
		if err != nil {
			return err
		}
		network := fmt.Sprintf("%d", chainID)
		if chainID != s.cfg.ChainID {
			network += color.RedString(" (Wrong network, expected %d)", s.cfg.ChainID)
		}
		fmt.Printf("Chain ID:  %s\n", network)
		fmt.Printf("Block:     %d\n", block)

		m, err := s.service.MembershipStatus(cmd.Context(), s.address())
		if err != nil {
			return err
		}
		fmt.Printf("Member:    %s\n", m.Label())
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletConnectCmd)
	walletCmd.AddCommand(walletDisconnectCmd)
	walletCmd.AddCommand(walletInfoCmd)

	walletImportCmd.Flags().StringVar(&importKey, "key", "", "Hex private key (prompted when omitted)")
	walletConnectCmd.Flags().BoolVar(&watchOnly, "watch", false, "Connect a read-only address without a key")
	walletNewCmd.Flags().BoolVar(&skipSwitch, "no-connect", false, "Do not connect the new account")
	walletImportCmd.Flags().BoolVar(&skipSwitch, "no-connect", false, "Do not connect the imported account")
}
