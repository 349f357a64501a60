// Command nearby prints the childcare centres closest to a position or a
// named place.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"crechespots/internal/app"
	"crechespots/internal/config"
	"crechespots/internal/env"
	"crechespots/internal/present"
	"crechespots/internal/resolver"
	"crechespots/pkg/geo"
	"crechespots/pkg/graceful"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("nearby", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "Device latitude")
	lon := fs.Float64("lon", 0, "Device longitude")
	place := fs.String("place", "", "Search from this place instead of the device position")
	saved := fs.String("saved", "", "Search from this saved location")
	query := fs.String("q", "", "Only centres whose name contains this text")
	limit := fs.Int("n", 10, "Number of centres to print (0 for all)")
	timeout := fs.Duration("timeout", 30*time.Second, "Give up after this long")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	env.LoadEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 2
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Printf("Failed to initialize: %v", err)
		return 1
	}
	defer a.Close()

	locator := resolver.StaticLocator{}
	if isSet(fs, "lat") && isSet(fs, "lon") {
		locator.Coord = &geo.Coordinate{Latitude: *lat, Longitude: *lon}
	}

	_, s := a.Registry.Create(locator)
	if err := s.WaitReady(ctx); err != nil {
		log.Printf("Search did not complete: %v", err)
		return 1
	}

	switch {
	case *place != "":
		if _, err := s.SubmitLocation(ctx, *place); err != nil {
			log.Printf("Location not found. Try again. (%v)", err)
			return 1
		}
	case *saved != "":
		if _, err := s.SelectSaved(ctx, *saved); err != nil {
			log.Printf("%v", err)
			return 1
		}
	}
	if err := s.SetQuery(*query); err != nil {
		log.Printf("%v", err)
		return 1
	}

	snap := s.Snapshot()
	if snap.CatalogErr != nil {
		log.Printf("Error fetching creches: %v", snap.CatalogErr)
		return 1
	}
	if snap.Notice != "" {
		fmt.Fprintln(os.Stderr, snap.Notice)
	}
	if snap.Origin != nil {
		fmt.Printf("Searching from %s %v\n\n", snap.Origin.Name, snap.Origin.Coords)
	}

	items := present.Render(snap.Centres, nil).Items()
	if *limit > 0 && len(items) > *limit {
		items = items[:*limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDISTANCE\tWEEKLY\tREGISTERED\tADDRESS")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\n",
			item.ID, item.Name, item.DistanceLabel, item.PriceLabel, item.Registered, item.Address)
	}
	if err := w.Flush(); err != nil {
		log.Printf("Failed to write output: %v", err)
		return 1
	}

	if len(items) == 0 {
		fmt.Println("No centres match.")
	}

	fmt.Println()
	fmt.Println("Saved locations:")
	for _, loc := range s.SavedLocations(ctx) {
		fmt.Printf("  %s %v\n", loc.Name, loc.Coords)
	}
	return 0
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
