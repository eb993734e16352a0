package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/repository"
)

// PlanetService serves the planets collection.
type PlanetService struct {
	repo   *repository.PlanetRepository
	opts   Options
	logger zerolog.Logger
}

// NewPlanetService creates a PlanetService over repo.
func NewPlanetService(repo *repository.PlanetRepository, opts Options) *PlanetService {
	return &PlanetService{
		repo:   repo,
		opts:   opts,
		logger: logging.NewLogger("planet-service"),
	}
}

// Repository returns the underlying repository.
func (s *PlanetService) Repository() *repository.PlanetRepository { return s.repo }

// GetPlanetByID returns the planet with id or an apperr not found.
func (s *PlanetService) GetPlanetByID(ctx context.Context, id string) (models.Planet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PlanetService) ListPlanets(ctx context.Context, q repository.Query) ([]models.Planet, int) {
	return s.repo.GetAll(ctx, q)
}

func (s *PlanetService) SearchPlanets(ctx context.Context, query string) []models.Planet {
	if !searchable(query) {
		return []models.Planet{}
	}
	return s.repo.Search(ctx, query)
}

func (s *PlanetService) CountPlanets(ctx context.Context) int {
	return s.repo.Count(ctx, nil)
}

// GetPlanetsByFilm returns the planets featured in film filmID.
func (s *PlanetService) GetPlanetsByFilm(ctx context.Context, filmID string) []models.Planet {
	s.logger.Info().Str("film_id", filmID).Msg("Listing planets of film")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourceFilms, filmID, "planets")
}

// GetPlanetsByClimate lists planets whose climate contains climate.
func (s *PlanetService) GetPlanetsByClimate(ctx context.Context, climate string) []models.Planet {
	s.logger.Info().Str("climate", climate).Msg("Listing planets by climate")
	return byContains(ctx, s.repo, "climate", climate)
}
