package commands

import (
	"fmt"

	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchBookings bool

func printBookings(s *session, bookings []models.BookingWithDetails) {
	if len(bookings) == 0 {
		fmt.Println("No bookings yet.")
		return
	}

	for _, b := range bookings {
		fmt.Printf("Booking #%d for Listing #%d\n", b.ID, b.ListingID)
		fmt.Printf("  Date:        %s\n", util.FormatUTCDate(b.StartTs))
		fmt.Printf("  Time:        %s\n", util.FormatUTCTimeRange(b.StartTs, b.EndTs))
		fmt.Printf("  Amount paid: %s\n", s.amount(b.Amount))
		if b.Released {
			color.Green("  Released:    yes\n")
		} else {
			fmt.Println("  Released:    no")
		}
		if url := b.ImageURL(); url != "" {
			fmt.Printf("  Image:       %s\n", url)
		}
	}
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Show your bookings",
	Long:  "Scan the booking contract for bookings rented by the connected account",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		if s.conn == nil {
			return fmt.Errorf("%w: run 'bookchain wallet connect' first", models.ErrNotConnected)
		}

		if !watchBookings {
			bookings, err := s.service.MyBookings(cmd.Context(), s.address())
			if err != nil {
				return fmt.Errorf("error loading bookings: %w", err)
			}
			printBookings(s, bookings)
			return nil
		}

		fmt.Println("Watching for new blocks (Ctrl+C to stop)")
		return s.service.WatchMyBookings(cmd.Context(), s.address(), func(bookings []models.BookingWithDetails, err error) {
			if err != nil {
				color.Red("error loading bookings: %v\n", err)
				return
			}
			fmt.Println()
			printBookings(s, bookings)
		})
	},
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Show access tokens",
	Long:  "Show how many access tokens the connected account holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		balance, err := s.service.AccessTokens(cmd.Context(), s.address())
		if err != nil {
			return err
		}
		fmt.Printf("Access tokens: %s\n", balance.String())
		return nil
	},
}

func init() {
	bookingsCmd.Flags().BoolVarP(&watchBookings, "watch", "w", false, "Reload on every new block")
}
