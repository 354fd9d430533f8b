package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
)

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printUser(w io.Writer, u *models.User) {
	if u == nil {
		return
	}
	fmt.Fprintf(w, "Email:         %s\n", u.Email)
	fmt.Fprintf(w, "Username:      %s\n", u.Username)
	fmt.Fprintf(w, "Date of birth: %s\n", deref(u.DateOfBirth))
	fmt.Fprintf(w, "Country:       %s\n", deref(u.Country))
	if u.LastLogin != nil {
		fmt.Fprintf(w, "Last login:    %s\n", u.LastLogin.Local().Format("2006-01-02 15:04"))
	}
}

func mediaKind(m models.Media) string {
	switch {
	case m.IsAnimation:
		return "animation"
	case m.Type == models.MediaSeries:
		return "series"
	default:
		return "movie"
	}
}

func printMediaList(w io.Writer, items []models.Media) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tKIND\tIMDB")
	for _, m := range items {
		rating := "-"
		if m.IMDbRating > 0 {
			rating = fmt.Sprintf("%.1f", m.IMDbRating)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", m.MediaID, m.Title, m.ReleaseYear, mediaKind(m), rating)
	}
	_ = tw.Flush()
}

func printMedia(w io.Writer, m *models.Media) {
	fmt.Fprintf(w, "%s (%d)\n", m.Title, m.ReleaseYear)
	if m.OriginalTitle != "" && m.OriginalTitle != m.Title {
		fmt.Fprintf(w, "Original title: %s\n", m.OriginalTitle)
	}
	fmt.Fprintf(w, "Kind:     %s\n", mediaKind(*m))
	if m.TotalSeasons > 0 {
		fmt.Fprintf(w, "Seasons:  %d\n", m.TotalSeasons)
	}
	fmt.Fprintf(w, "Duration: %d min\n", m.Duration)
	fmt.Fprintf(w, "Rated:    %s\n", m.AgeRating)
	if len(m.Genres) > 0 {
		fmt.Fprintf(w, "Genres:   %s\n", strings.Join(m.Genres, ", "))
	}
	if m.IMDbRating > 0 {
		fmt.Fprintf(w, "IMDb:     %.1f\n", m.IMDbRating)
	}
	if m.Description != "" {
		fmt.Fprintln(w, m.Description)
	}
}

func printClubs(w io.Writer, clubs []models.CinemaClub) {
	if len(clubs) == 0 {
		fmt.Fprintln(w, "No clubs")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tTITLES")
	for _, c := range clubs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", c.ClubID, c.Title, c.Type, c.MediaCount)
	}
	_ = tw.Flush()
}

func printClub(w io.Writer, c *models.CinemaClub) {
	fmt.Fprintf(w, "%s [%s]\n", c.Title, c.Type)
	if c.Description != "" {
		fmt.Fprintln(w, c.Description)
	}
	printMediaList(w, c.Media)
}
