package models

import (
	"net/url"
	"strconv"
	"time"
)

// Pagination describes a page of a catalog listing.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Envelope is the wrapper used by catalog endpoints.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// MediaType distinguishes movies and series.
type MediaType string

const (
	MediaMovie  MediaType = "movie"
	MediaSeries MediaType = "tv_series"
)

// Media is a catalog item.
type Media struct {
	MediaID         string     `json:"media_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            MediaType  `json:"type"`
	ReleaseYear     int        `json:"release_year"`
	AgeRating       string     `json:"age_rating"`
	Duration        int        `json:"duration"`
	PosterURL       string     `json:"poster_url"`
	OriginalTitle   string     `json:"original_title,omitempty"`
	TotalSeasons    int        `json:"total_seasons,omitempty"`
	BackgroundURL   string     `json:"background_url,omitempty"`
	TrailerURL      string     `json:"trailer_url,omitempty"`
	IMDbRating      float64    `json:"imdb_rating,omitempty"`
	KinopoiskRating float64    `json:"kinopoisk_rating,omitempty"`
	Genres          []string   `json:"genres,omitempty"`
	IsAnimation     bool       `json:"is_animation,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// MediaFilters are the query parameters of GET /media. Zero values are
// omitted from the query string.
type MediaFilters struct {
	Type      MediaType
	Limit     int
	Offset    int
	Search    string
	Genre     string
	Year      int
	Animation *bool
}

// Query encodes the filters as URL query parameters.
func (f MediaFilters) Query() url.Values {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Genre != "" {
		q.Set("genre", f.Genre)
	}
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.Animation != nil {
		if *f.Animation {
			q.Set("is_animation", "1")
		} else {
			q.Set("is_animation", "0")
		}
	}
	return q
}

// ClubType groups cinema clubs.
type ClubType string

const (
	ClubGenre    ClubType = "genre"
	ClubDirector ClubType = "director"
	ClubMood     ClubType = "mood"
	ClubSeasonal ClubType = "seasonal"
	ClubTrending ClubType = "trending"
)

// ClubTypes lists every club type in display order.
var ClubTypes = []ClubType{ClubGenre, ClubDirector, ClubMood, ClubSeasonal, ClubTrending}

// CinemaClub is a curated collection of media.
type CinemaClub struct {
	ClubID      int64    `json:"club_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        ClubType `json:"type"`
	CoverImage  string   `json:"cover_image"`
	MediaCount  int      `json:"media_count"`
	Media       []Media  `json:"media"`
}
