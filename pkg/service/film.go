package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/repository"
)

// FilmService serves the films collection.
type FilmService struct {
	repo   *repository.FilmRepository
	opts   Options
	logger zerolog.Logger
}

// NewFilmService creates a FilmService over repo.
func NewFilmService(repo *repository.FilmRepository, opts Options) *FilmService {
	return &FilmService{
		repo:   repo,
		opts:   opts,
		logger: logging.NewLogger("film-service"),
	}
}

// Repository returns the underlying repository.
func (s *FilmService) Repository() *repository.FilmRepository { return s.repo }

// GetFilmByID returns the film with id or an apperr not found.
func (s *FilmService) GetFilmByID(ctx context.Context, id string) (models.Film, error) {
	return s.repo.GetByID(ctx, id)
}

// ListFilms delegates to the repository's GetAll.
func (s *FilmService) ListFilms(ctx context.Context, q repository.Query) ([]models.Film, int) {
	return s.repo.GetAll(ctx, q)
}

// SearchFilms searches by title.
func (s *FilmService) SearchFilms(ctx context.Context, query string) []models.Film {
	if !searchable(query) {
		return []models.Film{}
	}
	return s.repo.Search(ctx, query)
}

// CountFilms returns the collection total.
func (s *FilmService) CountFilms(ctx context.Context) int {
	return s.repo.Count(ctx, nil)
}

// GetFilmsByDirector lists films whose director contains director,
// case-insensitively.
func (s *FilmService) GetFilmsByDirector(ctx context.Context, director string) []models.Film {
	s.logger.Info().Str("director", director).Msg("Listing films by director")
	return byContains(ctx, s.repo, "director", director)
}

// GetFilmsByCharacter returns the films character characterID appears in.
func (s *FilmService) GetFilmsByCharacter(ctx context.Context, characterID string) []models.Film {
	s.logger.Info().Str("character_id", characterID).Msg("Listing films of character")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourcePeople, characterID, "films")
}

// GetFilmsByPlanet returns the films planet planetID appears in.
func (s *FilmService) GetFilmsByPlanet(ctx context.Context, planetID string) []models.Film {
	s.logger.Info().Str("planet_id", planetID).Msg("Listing films of planet")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourcePlanets, planetID, "films")
}

// GetFilmsByStarship returns the films starship starshipID appears in.
func (s *FilmService) GetFilmsByStarship(ctx context.Context, starshipID string) []models.Film {
	s.logger.Info().Str("starship_id", starshipID).Msg("Listing films of starship")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourceStarships, starshipID, "films")
}
