package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/repository"
)

// StarshipService serves the starships collection.
type StarshipService struct {
	repo   *repository.StarshipRepository
	opts   Options
	logger zerolog.Logger
}

// NewStarshipService creates a StarshipService over repo.
func NewStarshipService(repo *repository.StarshipRepository, opts Options) *StarshipService {
	return &StarshipService{
		repo:   repo,
		opts:   opts,
		logger: logging.NewLogger("starship-service"),
	}
}

// Repository returns the underlying repository.
func (s *StarshipService) Repository() *repository.StarshipRepository { return s.repo }

// GetStarshipByID returns the starship with id or an apperr not found.
func (s *StarshipService) GetStarshipByID(ctx context.Context, id string) (models.Starship, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *StarshipService) ListStarships(ctx context.Context, q repository.Query) ([]models.Starship, int) {
	return s.repo.GetAll(ctx, q)
}

func (s *StarshipService) SearchStarships(ctx context.Context, query string) []models.Starship {
	if !searchable(query) {
		return []models.Starship{}
	}
	return s.repo.Search(ctx, query)
}

func (s *StarshipService) CountStarships(ctx context.Context) int {
	return s.repo.Count(ctx, nil)
}

// GetStarshipsByFilm returns the starships featured in film filmID.
func (s *StarshipService) GetStarshipsByFilm(ctx context.Context, filmID string) []models.Starship {
	s.logger.Info().Str("film_id", filmID).Msg("Listing starships of film")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourceFilms, filmID, "starships")
}

// GetStarshipsByClass lists starships whose class contains class.
func (s *StarshipService) GetStarshipsByClass(ctx context.Context, class string) []models.Starship {
	s.logger.Info().Str("class", class).Msg("Listing starships by class")
	return byContains(ctx, s.repo, "starship_class", class)
}

// GetStarshipsByPilot returns the starships piloted by character pilotID.
func (s *StarshipService) GetStarshipsByPilot(ctx context.Context, pilotID string) []models.Starship {
	s.logger.Info().Str("pilot_id", pilotID).Msg("Listing starships of pilot")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourcePeople, pilotID, "starships")
}
