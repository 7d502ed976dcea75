package commands

import (
	"fmt"

	"bookchain/internal/util"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	membershipAmount   string
	membershipDecimals int
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Show or buy membership",
	Long:  "Check the membership of the connected account and buy or extend it",
}

var membershipStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show membership status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		m, err := s.service.MembershipStatus(cmd.Context(), s.address())
		if err != nil {
			return fmt.Errorf("error reading membership: %w", err)
		}

		if m.IsMember() {
			color.Green("Status: %s\n", m.Label())
		} else {
			fmt.Printf("Status: %s\n", m.Label())
		}
		if m.ShowExpiry() {
			fmt.Printf("Expires: %s\n", util.FormatUTCDate(m.ExpiresAt))
		}
		return nil
	},
}

var membershipBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy or extend membership",
	Long:  "Send becomeMember with the membership payment and wait for confirmation",
	Example: `  bookchain membership buy
  bookchain membership buy --amount 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.close()

		m, err := s.service.MembershipStatus(cmd.Context(), s.address())
		if err != nil {
			return fmt.Errorf("error reading membership: %w", err)
		}

		amount := membershipAmount
		if amount == "" {
			amount = s.cfg.MembershipAmount
		}
		fmt.Printf("%s: paying %s %s\n", m.ActionLabel(), amount, s.cfg.CurrencySymbol)

		if _, err := s.service.BuyMembership(cmd.Context(), amount, membershipDecimals, printTx); err != nil {
			return err
		}

		m, err = s.service.MembershipStatus(cmd.Context(), s.address())
		if err != nil {
			return fmt.Errorf("error reading membership: %w", err)
		}
		fmt.Printf("Status: %s\n", m.Label())
		if m.ShowExpiry() {
			fmt.Printf("Expires: %s\n", util.FormatUTCDate(m.ExpiresAt))
		}
		return nil
	},
}

func init() {
	membershipCmd.AddCommand(membershipStatusCmd)
	membershipCmd.AddCommand(membershipBuyCmd)

	membershipBuyCmd.Flags().StringVar(&membershipAmount, "amount", "", "Payment in whole tokens (default from config)")
	membershipBuyCmd.Flags().IntVar(&membershipDecimals, "decimals", 0, "Token decimals (default from config)")
}
