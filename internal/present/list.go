// Package present renders the sorted centre list the way the user sees it
// and hands selections to whatever navigates to the detail view.
package present

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"crechespots/internal/models"
)

// PlaceholderLogo is shown for centres without a logo of their own.
const PlaceholderLogo = "https://crechespots.org.za/wp-content/uploads/2024/08/recheSpot-1.gif"

var ErrNotListed = errors.New("centre is not in the list")

// Item is one row of the list.
type Item struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	PhoneNumber   string   `json:"phone_number"`
	Capacity      int      `json:"capacity"`
	Logo          string   `json:"logo"`
	Registered    bool     `json:"registered"`
	PriceLabel    string   `json:"price_label"`
	Distance      *float64 `json:"distance"`
	DistanceLabel string   `json:"distance_label"`
	Gallery       []string `json:"gallery"`
}

// Navigator opens the detail view of the selected centre.
type Navigator interface {
	Open(centreID int64)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(centreID int64)

func (f NavigatorFunc) Open(centreID int64) { f(centreID) }

// List is a rendered, read-only view of an annotated catalog.
type List struct {
	items []Item
	nav   Navigator
}

// Render builds the list in the given order. nav may be nil when selections
// are not followed.
func Render(centres []models.AnnotatedCentre, nav Navigator) *List {
	items := make([]Item, len(centres))
	for i, c := range centres {
		items[i] = NewItem(c)
	}
	return &List{items: items, nav: nav}
}

func NewItem(c models.AnnotatedCentre) Item {
	logo := strings.TrimSpace(c.Logo)
	if logo == "" {
		logo = PlaceholderLogo
	}
	gallery := c.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return Item{
		ID:            c.ID,
		Name:          c.Name,
		Address:       c.Address,
		PhoneNumber:   c.PhoneNumber,
		Capacity:      c.Capacity,
		Logo:          logo,
		Registered:    c.Registered,
		PriceLabel:    PriceLabel(c.WeeklyPrice),
		Distance:      c.Distance,
		DistanceLabel: DistanceLabel(c.Distance),
		Gallery:       gallery,
	}
}

// PriceLabel formats a weekly price in rand, e.g. "R 450" or "R 452.5".
func PriceLabel(price float64) string {
	return "R " + strconv.FormatFloat(price, 'f', -1, 64)
}

// DistanceLabel formats a distance with two decimals, or "N/A" when unknown.
func DistanceLabel(km *float64) string {
	if km == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f km", *km)
}

// Items returns a copy of the rows in display order.
func (l *List) Items() []Item {
	return append([]Item(nil), l.items...)
}

func (l *List) Len() int { return len(l.items) }

// Select signals the navigator with id if the centre is listed.
func (l *List) Select(id int64) (Item, error) {
	for _, item := range l.items {
		if item.ID == id {
			if l.nav != nil {
				l.nav.Open(id)
			}
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %d", ErrNotListed, id)
}
