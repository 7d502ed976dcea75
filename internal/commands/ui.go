package commands

import (
	"fmt"

	"bookchain/internal/ui"

	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the terminal UI",
	Long: `Open the interactive terminal UI with Membership, Listings and My Bookings views.
Logs go to <config dir>/bookchain.log while the UI is running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		// The passphrase prompt cannot run inside the alternate screen
		if s.wallet != nil {
			if err := s.wallet.Unlock(); err != nil {
				return err
			}
			defer s.wallet.Lock()
		}

		err = ui.Run(ui.Options{
			Service:          s.service,
			Context:          cmd.Context(),
			Address:          s.address(),
			CanSign:          s.wallet != nil,
			MembershipAmount: s.cfg.MembershipAmount,
			CurrencySymbol:   s.cfg.CurrencySymbol,
			Decimals:         s.cfg.TokenDecimals,
			PollInterval:     s.cfg.Poll(),
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("error running UI: %w", err)
		}
		return nil
	},
}
