package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"bookchain/internal/dapp"
	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listingDate  string
	listingPrice string
	listingCID   string
	dateDays     int
)

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id: %s", arg)
	}
	return id, nil
}

var listingsCmd = &cobra.Command{
	Use:     "listings",
	Aliases: []string{"listing"},
	Short:   "Browse listings",
	Long:    "List active listings, show a listing and check availability",
}

var listingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		if !s.cfg.Deployment().Has(models.ContractListing) {
			return models.ContractNotSet(models.ContractListing)
		}

		listings, err := s.service.Listings(cmd.Context())
		if err != nil {
			return fmt.Errorf("error loading listings: %w", err)
		}
		if len(listings) == 0 {
			fmt.Println("No active listings.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPRICE/HOUR\tOWNER\tIMAGE")
		for _, l := range listings {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.ID, s.amount(l.PricePerHour), util.ShortAddress(l.Owner), l.ImageURL())
		}
		return w.Flush()
	},
}

var listingsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		l, err := s.service.Listing(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("Listing #%d\n", l.ID)
		fmt.Printf("Owner:      %s\n", l.Owner.Hex())
		fmt.Printf("Price/hour: %s\n", s.amount(l.PricePerHour))
		fmt.Printf("CID:        %s\n", l.CID)
		if url := l.ImageURL(); url != "" {
			fmt.Printf("Image:      %s\n", url)
		}
		if l.Active {
			color.Green("Active\n")
		} else {
			color.Red("Inactive\n")
		}
		return nil
	},
}

var listingsAvailabilityCmd = &cobra.Command{
	Use:   "availability <id>",
	Short: "Check availability for a UTC day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()

		date := listingDate
		if date == "" {
			date = s.service.DateOptions(1)[0].Value
		}

		a := s.service.CheckDay(cmd.Context(), id, date)
		if a.Err != nil {
			color.Red("%s\n", a.Message)
			return a.Err
		}
		if !a.Available {
			color.Red("%s\n", a.Message)
			return nil
		}

		l, err := s.service.Listing(cmd.Context(), id)
		if err != nil {
			return err
		}
		start, end, err := util.UTCDayRange(date)
		if err != nil {
			return err
		}
		cost, err := dapp.BookingCost(l.PricePerHour, start, end)
		if err != nil {
			return err
		}
		color.Green("Listing #%d is available on %s\n", id, util.FormatUTCDate(start))
		fmt.Printf("Price for the day: %s\n", s.amount(cost))
		return nil
	},
}

var listingsDatesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Show bookable dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range util.DateOptions(time.Now(), dateDays) {
			fmt.Printf("%s  %s\n", d.Value, d.Label)
		}
		return nil
	},
}

var listingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a listing",
	Long:  "Publish a listing owned by the connected account",
	Example: `  bookchain listings create --price 0.01 --cid bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listingPrice == "" || listingCID == "" {
			return fmt.Errorf("--price and --cid are required")
		}

		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.service.CreateListing(cmd.Context(), listingPrice, listingCID, printTx)
		return err
	},
}

func init() {
	listingsCmd.AddCommand(listingsListCmd)
	listingsCmd.AddCommand(listingsShowCmd)
	listingsCmd.AddCommand(listingsAvailabilityCmd)
	listingsCmd.AddCommand(listingsDatesCmd)
	listingsCmd.AddCommand(listingsCreateCmd)

	listingsAvailabilityCmd.Flags().StringVar(&listingDate, "date", "", "UTC day YYYY-MM-DD (default today)")
	listingsDatesCmd.Flags().IntVar(&dateDays, "days", 14, "Number of days to show")
	listingsCreateCmd.Flags().StringVar(&listingPrice, "price", "", "Price per hour in whole tokens")
	listingsCreateCmd.Flags().StringVar(&listingCID, "cid", "", "IPFS CID of the listing metadata")
}
