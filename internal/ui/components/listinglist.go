package components

import (
	"fmt"
	"math/big"
	"sort"

	"bookchain/internal/models"
	"bookchain/internal/util"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PriceFormatter renders an hourly price for display
type PriceFormatter func(*big.Int) string

// ListingItem represents a listing in the list
type ListingItem struct {
	Listing models.Listing
	Price   string
}

// FilterValue returns the filter value for the listing item
func (i ListingItem) FilterValue() string {
	return fmt.Sprintf("%d %s", i.Listing.ID, i.Listing.CID)
}

// Title returns the title for the listing item
func (i ListingItem) Title() string {
	return fmt.Sprintf("Listing #%d - %s/hour", i.Listing.ID, i.Price)
}

// Description returns the description for the listing item
func (i ListingItem) Description() string {
	desc := "Owner " + util.ShortAddress(i.Listing.Owner)
	if url := i.Listing.ImageURL(); url != "" {
		desc += " - " + url
	}
	return desc
}

// ListingListModel represents the listing list model
type ListingListModel struct {
	List     list.Model
	Listings []models.Listing
	Selected *models.Listing
}

// NewListingListModel creates a new listing list model
func NewListingListModel(width, height int) ListingListModel {
	listModel := list.New([]list.Item{}, list.NewDefaultDelegate(), width, height)
	listModel.Title = "Active listings"
	listModel.SetShowStatusBar(false)
	listModel.SetShowHelp(false)
	listModel.SetFilteringEnabled(false)
	listModel.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true).
		MarginLeft(2)

	return ListingListModel{
		List:     listModel,
		Listings: []models.Listing{},
	}
}

// SetListings replaces the listings, keeping the selection when it still exists
func (m *ListingListModel) SetListings(listings []models.Listing, price PriceFormatter) {
	var selectedID uint64
	if m.Selected != nil {
		selectedID = m.Selected.ID
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].ID < listings[j].ID
	})
	m.Listings = listings

	items := make([]list.Item, len(listings))
	index := 0
	for i, l := range listings {
		items[i] = ListingItem{Listing: l, Price: price(l.PricePerHour)}
		if l.ID == selectedID {
			index = i
		}
	}

	m.List.SetItems(items)
	if len(items) > 0 {
		m.List.Select(index)
	}
	m.syncSelected()
}

// SetSize resizes the list
func (m *ListingListModel) SetSize(width, height int) {
	m.List.SetSize(width, height)
}

// Update handles listing list updates
func (m ListingListModel) Update(msg tea.Msg) (ListingListModel, tea.Cmd) {
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	m.syncSelected()
	return m, cmd
}

func (m *ListingListModel) syncSelected() {
	if item, ok := m.List.SelectedItem().(ListingItem); ok {
		l := item.Listing
		m.Selected = &l
	} else {
		m.Selected = nil
	}
}

// View renders the listing list
func (m ListingListModel) View() string {
	return m.List.View()
}
