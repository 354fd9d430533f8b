package devserver

import "github.com/dmitrijs2005/cinemaclub/internal/client/models"

func movie(id, title string, year int, rating float64, popularity int, genres ...string) mediaRecord {
	return mediaRecord{
		Media: models.Media{
			MediaID:     id,
			Title:       title,
			Type:        models.MediaMovie,
			ReleaseYear: year,
			AgeRating:   "16+",
			Duration:    120,
			PosterURL:   "/posters/" + id + ".jpg",
			IMDbRating:  rating,
			Genres:      genres,
		},
		Popularity: popularity,
	}
}

func series(id, title string, year, seasons int, rating float64, popularity int, genres ...string) mediaRecord {
	m := movie(id, title, year, rating, popularity, genres...)
	m.Type = models.MediaSeries
	m.TotalSeasons = seasons
	m.Duration = 50
	return m
}

func animated(m mediaRecord) mediaRecord {
	m.IsAnimation = true
	m.AgeRating = "6+"
	return m
}

func upcoming(m mediaRecord) mediaRecord {
	m.ComingSoon = true
	return m
}

func seedMedia() []mediaRecord {
	return []mediaRecord{
		movie("1", "Heat", 1995, 8.3, 90, "Crime", "Drama"),
		movie("2", "Blade Runner 2049", 2017, 8.0, 95, "Sci-Fi", "Drama"),
		movie("3", "Arrival", 2016, 7.9, 80, "Sci-Fi", "Drama"),
		movie("4", "Parasite", 2019, 8.5, 99, "Thriller", "Drama"),
		movie("5", "The Grand Budapest Hotel", 2014, 8.1, 70, "Comedy"),
		series("6", "Dark", 2017, 3, 8.7, 85, "Sci-Fi", "Thriller"),
		series("7", "Chernobyl", 2019, 1, 9.3, 97, "Drama", "History"),
		series("8", "Fargo", 2014, 5, 8.9, 75, "Crime", "Comedy"),
		animated(movie("9", "Spirited Away", 2001, 8.6, 88, "Fantasy", "Adventure")),
		animated(series("10", "Arcane", 2021, 2, 9.0, 92, "Fantasy", "Action")),
		upcoming(movie("11", "Untitled Heist Sequel", 2027, 0, 0, "Crime")),
		upcoming(series("12", "Northern Lights", 2027, 1, 0, 0, "Drama")),
	}
}

func seedClubs() []models.CinemaClub {
	media := seedMedia()
	pick := func(ids ...string) []models.Media {
		var out []models.Media
		for _, m := range media {
			for _, id := range ids {
				if m.MediaID == id {
					out = append(out, m.Media)
				}
			}
		}
		return out
	}
	club := func(id int64, title string, t models.ClubType, ids ...string) models.CinemaClub {
		ms := pick(ids...)
		return models.CinemaClub{
			ClubID:      id,
			Title:       title,
			Description: title + " picked by the editors",
			Type:        t,
			CoverImage:  "/clubs/" + string(t) + ".jpg",
			MediaCount:  len(ms),
			Media:       ms,
		}
	}

	return []models.CinemaClub{
		club(1, "Science fiction", models.ClubGenre, "2", "3", "6"),
		club(2, "Crime stories", models.ClubGenre, "1", "8"),
		club(3, "Denis Villeneuve", models.ClubDirector, "2", "3"),
		club(4, "Rainy evening", models.ClubMood, "5", "9"),
		club(5, "Winter nights", models.ClubSeasonal, "6", "7"),
		club(6, "Everyone is watching", models.ClubTrending, "4", "7", "10"),
	}
}
