package commands

import (
	"fmt"
	"strconv"

	"bookchain/internal/dapp"
	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	bookDate    string
	bookPayment string
)

var bookCmd = &cobra.Command{
	Use:   "book <listingId>",
	Short: "Book a listing for a UTC day",
	Long: `Book a listing for a whole UTC day. The payment is the hourly price times 24.
Availability is checked again right before the booking is sent.`,
	Example: `  bookchain book 1 --date 2025-10-31
  bookchain book raw 1 1761868800 1761955200 --payment 0.24`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if bookDate == "" {
			return fmt.Errorf("%w: use --date YYYY-MM-DD (see 'bookchain listings dates')", models.ErrNoDateSelected)
		}
		start, end, err := util.UTCDayRange(bookDate)
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.service.RequireMember(cmd.Context(), s.address()); err != nil {
			return err
		}

		l, err := s.service.Listing(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !l.Active {
			return fmt.Errorf("listing %d is not active", id)
		}

		cost, err := dapp.BookingCost(l.PricePerHour, start, end)
		if err != nil {
			return err
		}
		fmt.Printf("Booking listing #%d on %s for %s\n", id, util.FormatUTCDate(start), s.amount(cost))

		res, err := s.service.BookDay(cmd.Context(), l, bookDate, printTx)
		if err != nil {
			return err
		}
		color.Green("Booked listing #%d (tx %s)\n", id, res.ShortHash())
		return nil
	},
}

var bookRawCmd = &cobra.Command{
	Use:   "raw <listingId> <startTs> <endTs>",
	Short: "Book with explicit timestamps",
	Long:  "Send book with unix-second timestamps and an optional payment in whole tokens (18 decimals)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		start, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid start timestamp: %s", args[1])
		}
		end, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid end timestamp: %s", args[2])
		}

		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.service.Book(cmd.Context(), id, start, end, bookPayment, printTx)
		return err
	},
}

func init() {
	bookCmd.AddCommand(bookRawCmd)

	bookCmd.Flags().StringVar(&bookDate, "date", "", "UTC day YYYY-MM-DD")
	bookRawCmd.Flags().StringVar(&bookPayment, "payment", "", "Payment in whole tokens")
}
