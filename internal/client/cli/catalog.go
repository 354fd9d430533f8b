package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/services"
)

const listLimit = 20

// Media lists the catalog: "media", "media movie", "media tv_series" or
// "media animation". Further words are a title search.
func (a *App) Media(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	var (
		page *services.MediaPage
		err  error
	)

	kind := ""
	if len(args) > 0 {
		kind = args[0]
	}

	switch kind {
	case "":
		page, err = a.catalog.ListMedia(ctx, models.MediaFilters{Limit: listLimit})
	case string(models.MediaMovie), "movies":
		page, err = a.catalog.Movies(ctx, listLimit)
	case string(models.MediaSeries), "series":
		page, err = a.catalog.Series(ctx, listLimit)
	case "animation", "animations":
		page, err = a.catalog.Animations(ctx, listLimit)
	default:
		page, err = a.catalog.Search(ctx, joinArgs(args), listLimit)
	}
	if err != nil {
		return err
	}

	printMediaList(a.out, page.Items)
	if p := page.Pagination; p != nil && p.Total > len(page.Items) {
		fmt.Fprintf(a.out, "(%d of %d)\n", len(page.Items), p.Total)
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return nil
	}

	m, err := a.catalog.Media(ctx, args[0])
	if err != nil {
		return err
	}
	printMedia(a.out, m)
	return nil
}

func (a *App) Popular(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	items, err := a.catalog.Popular(ctx)
	if err != nil {
		return err
	}
	printMediaList(a.out, items)
	return nil
}

func (a *App) New(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	items, err := a.catalog.New(ctx)
	if err != nil {
		return err
	}
	printMediaList(a.out, items)
	return nil
}

func (a *App) Soon(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	items, err := a.catalog.ComingSoon(ctx, listLimit)
	if err != nil {
		return err
	}
	printMediaList(a.out, items)
	return nil
}

// Clubs lists cinema clubs: all, of one type, one club by numeric id, or
// "sections" for every type at once.
func (a *App) Clubs(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) == 0 {
		clubs, err := a.catalog.Clubs(ctx, "", 0)
		if err != nil {
			return err
		}
		printClubs(a.out, clubs)
		return nil
	}

	if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
		club, err := a.catalog.Club(ctx, id)
		if err != nil {
			return err
		}
		printClub(a.out, club)
		return nil
	}

	if args[0] == "sections" {
		sections, err := a.catalog.ClubSections(ctx, services.DefaultSectionLimit)
		if err != nil {
			return err
		}
		for _, s := range sections {
			fmt.Fprintf(a.out, "== %s ==\n", s.Type)
			printClubs(a.out, s.Clubs)
		}
		return nil
	}

	clubs, err := a.catalog.Clubs(ctx, models.ClubType(args[0]), services.DefaultSectionLimit)
	if err != nil {
		return err
	}
	printClubs(a.out, clubs)
	return nil
}
