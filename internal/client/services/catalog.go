// Package services contains application services for the cinemaclub client.
// This file defines the catalog service: media listings, details and
// cinema clubs.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"golang.org/x/sync/errgroup"
)

// ErrUnsuccessful is returned when the backend answers with success=false.
var ErrUnsuccessful = errors.New("request was not successful")

// DefaultSectionLimit is how many clubs each home-screen section holds.
const DefaultSectionLimit = 10

// CatalogAPI is the part of the backend the catalog reads from.
type CatalogAPI interface {
	ListMedia(ctx context.Context, f models.MediaFilters) (*models.Envelope[[]models.Media], error)
	GetMedia(ctx context.Context, id string) (*models.Envelope[models.Media], error)
	PopularMedia(ctx context.Context) (*models.Envelope[[]models.Media], error)
	NewMedia(ctx context.Context) (*models.Envelope[[]models.Media], error)
	ComingSoon(ctx context.Context, limit int) (*models.Envelope[[]models.Media], error)
	MediaByGenre(ctx context.Context, genre string, limit int) (*models.Envelope[[]models.Media], error)
	ListClubs(ctx context.Context, limit int) (*models.Envelope[[]models.CinemaClub], error)
	ClubsByType(ctx context.Context, t models.ClubType, limit int) (*models.Envelope[[]models.CinemaClub], error)
	GetClub(ctx context.Context, id int64) (*models.Envelope[models.CinemaClub], error)
}

// MediaPage is one page of a media listing.
type MediaPage struct {
	Items      []models.Media
	Pagination *models.Pagination
}

// ClubSection groups the clubs of one type.
type ClubSection struct {
	Type  models.ClubType
	Clubs []models.CinemaClub
}

type CatalogService struct {
	api CatalogAPI
}

func NewCatalogService(api CatalogAPI) *CatalogService {
	return &CatalogService{api: api}
}

func unwrap[T any](env *models.Envelope[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if env == nil || !env.Success {
		msg := ""
		if env != nil {
			msg = env.Message
		}
		if msg == "" {
			return zero, ErrUnsuccessful
		}
		return zero, fmt.Errorf("%w: %s", ErrUnsuccessful, msg)
	}
	return env.Data, nil
}

// ListMedia returns one page of media matching f.
func (s *CatalogService) ListMedia(ctx context.Context, f models.MediaFilters) (*MediaPage, error) {
	env, err := s.api.ListMedia(ctx, f)
	items, err := unwrap(env, err)
	if err != nil {
		return nil, err
	}
	return &MediaPage{Items: items, Pagination: env.Pagination}, nil
}

// Movies lists live-action movies. Animated titles belong to Animations.
func (s *CatalogService) Movies(ctx context.Context, limit int) (*MediaPage, error) {
	return s.ListMedia(ctx, models.MediaFilters{Type: models.MediaMovie, Animation: models.Ptr(false), Limit: limit})
}

// Series lists live-action series.
func (s *CatalogService) Series(ctx context.Context, limit int) (*MediaPage, error) {
	return s.ListMedia(ctx, models.MediaFilters{Type: models.MediaSeries, Animation: models.Ptr(false), Limit: limit})
}

func (s *CatalogService) Animations(ctx context.Context, limit int) (*MediaPage, error) {
	return s.ListMedia(ctx, models.MediaFilters{Animation: models.Ptr(true), Limit: limit})
}

func (s *CatalogService) Search(ctx context.Context, query string, limit int) (*MediaPage, error) {
	return s.ListMedia(ctx, models.MediaFilters{Search: query, Limit: limit})
}

func (s *CatalogService) Media(ctx context.Context, id string) (*models.Media, error) {
	m, err := unwrap(s.api.GetMedia(ctx, id))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *CatalogService) Popular(ctx context.Context) ([]models.Media, error) {
	return unwrap(s.api.PopularMedia(ctx))
}

func (s *CatalogService) New(ctx context.Context) ([]models.Media, error) {
	return unwrap(s.api.NewMedia(ctx))
}

func (s *CatalogService) ComingSoon(ctx context.Context, limit int) ([]models.Media, error) {
	return unwrap(s.api.ComingSoon(ctx, limit))
}

func (s *CatalogService) ByGenre(ctx context.Context, genre string, limit int) ([]models.Media, error) {
	return unwrap(s.api.MediaByGenre(ctx, genre, limit))
}

// Clubs lists clubs, all of them when t is empty.
func (s *CatalogService) Clubs(ctx context.Context, t models.ClubType, limit int) ([]models.CinemaClub, error) {
	if t == "" {
		return unwrap(s.api.ListClubs(ctx, limit))
	}
	return unwrap(s.api.ClubsByType(ctx, t, limit))
}

func (s *CatalogService) Club(ctx context.Context, id int64) (*models.CinemaClub, error) {
	c, err := unwrap(s.api.GetClub(ctx, id))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ClubSections fetches every club type concurrently. Sections come back in
// models.ClubTypes order; the first failure cancels the rest.
func (s *CatalogService) ClubSections(ctx context.Context, limit int) ([]ClubSection, error) {
	if limit <= 0 {
		limit = DefaultSectionLimit
	}

	sections := make([]ClubSection, len(models.ClubTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range models.ClubTypes {
		g.Go(func() error {
			clubs, err := unwrap(s.api.ClubsByType(gctx, t, limit))
			if err != nil {
				return fmt.Errorf("%s clubs: %w", t, err)
			}
			sections[i] = ClubSection{Type: t, Clubs: clubs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sections, nil
}
