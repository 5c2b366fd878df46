package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jortega/fuelwatch/internal/api"
	"github.com/jortega/fuelwatch/internal/models"
)

// parseFilters turns "key=value" tokens into StationFilters. Recognized
// keys match the API query parameters: province, town, flag, flag_id,
// product, product_id, hour_type_id.
func parseFilters(args []string) (api.StationFilters, error) {
	var f api.StationFilters
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || value == "" {
			return f, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch key {
		case "province":
			f.Province = value
		case "town":
			f.Town = value
		case "flag":
			f.Flag = value
		case "product":
			f.Product = value
		case "flag_id", "product_id", "hour_type_id":
			n, err := strconv.Atoi(value)
			if err != nil {
				return f, fmt.Errorf("%s must be a number, got %q", key, value)
			}
			switch key {
			case "flag_id":
				f.FlagID = n
			case "product_id":
				f.ProductID = n
			case "hour_type_id":
				f.HourTypeID = n
			}
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}
	return f, nil
}

// renderPage prints one page of the station listing.
func (a *App) renderPage(page models.PaginatedResult[models.Station]) {
	if page.Total == 0 {
		printlnFn("No stations found")
		return
	}
	printlnFn(fmt.Sprintf("Page %d/%d (%d stations)", page.Page, page.TotalPages, page.Total))
	for i, st := range page.Items {
		line := fmt.Sprintf("%2d. %s — %s, %s", i+1, st.StationName, st.Town, st.Province)
		if st.Flag != "" {
			line += " [" + st.Flag + "]"
		}
		printlnFn(line)
	}
}

// Stations lists stations matching the given "key=value" filter arguments,
// starting from the first page. The unfiltered collection is fetched once
// and paged locally, so next/prev do not hit the network again.
func (a *App) Stations(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	filters, err := parseFilters(args)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	a.filters = filters
	a.page = 1
	return a.fetchPage(ctx, false)
}

// NextPage advances to the next page of the current listing.
func (a *App) NextPage(ctx context.Context) error {
	if !a.hasPage {
		printlnFn("No listing yet, run 'stations' first")
		return nil
	}
	if a.page >= a.current.TotalPages {
		printlnFn("Already on the last page")
		return nil
	}
	a.page++
	return a.fetchPage(ctx, false)
}

// PrevPage moves back to the previous page of the current listing.
func (a *App) PrevPage(ctx context.Context) error {
	if !a.hasPage {
		printlnFn("No listing yet, run 'stations' first")
		return nil
	}
	if a.page <= 1 {
		printlnFn("Already on the first page")
		return nil
	}
	a.page--
	return a.fetchPage(ctx, false)
}

// Refresh refetches the current listing from the server, bypassing the cache.
func (a *App) Refresh(ctx context.Context) error {
	if !a.hasPage {
		printlnFn("No listing yet, run 'stations' first")
		return nil
	}
	return a.fetchPage(ctx, true)
}

func (a *App) fetchPage(ctx context.Context, force bool) error {
	var (
		page models.PaginatedResult[models.Station]
		err  error
	)
	if force {
		page, err = a.stations.Refresh(ctx, a.filters, a.page, a.config.PageSize)
	} else {
		page, err = a.stations.List(ctx, a.filters, a.page, a.config.PageSize)
	}
	if err != nil {
		printErr(err)
		return err
	}
	a.current = page
	a.hasPage = true
	a.renderPage(page)
	return nil
}

// Show prints the details of one station from the current page, addressed
// by its row number, including each product's price history. With no
// argument, the row number is prompted for.
func (a *App) Show(ctx context.Context, args []string) error {
	if !a.hasPage {
		printlnFn("No listing yet, run 'stations' first")
		return nil
	}

	var raw string
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		raw, err = getSimpleText(a.reader, "Enter station number", os.Stdout)
		if err != nil {
			return err
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > len(a.current.Items) {
		printlnFn(fmt.Sprintf("Expected a number between 1 and %d", len(a.current.Items)))
		return fmt.Errorf("invalid station number %q", raw)
	}

	st := a.current.Items[n-1]
	printlnFn(st.StationName)
	printlnFn("Address:", st.Address)
	printlnFn(fmt.Sprintf("Town: %s, %s", st.Town, st.Province))
	if st.Flag != "" {
		printlnFn("Flag:", st.Flag)
	}
	for _, p := range st.Products {
		price := p.LastPrice
		if price == 0 && len(p.Prices) > 0 {
			price = p.Prices[len(p.Prices)-1].Price
		}
		printlnFn(fmt.Sprintf("  %s: %.3f", p.ProductName, price))
		// Price history, oldest to newest.
		for _, obs := range p.Prices {
			line := fmt.Sprintf("    %s  %.3f", obs.Date.Format("2006-01-02"), obs.Price)
			if obs.HourType != "" {
				line += "  " + obs.HourType
			}
			printlnFn(line)
		}
	}
	return nil
}
