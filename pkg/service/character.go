package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/repository"
)

// CharacterService serves the people collection.
type CharacterService struct {
	repo   *repository.CharacterRepository
	opts   Options
	logger zerolog.Logger
}

// NewCharacterService creates a CharacterService over repo.
func NewCharacterService(repo *repository.CharacterRepository, opts Options) *CharacterService {
	return &CharacterService{
		repo:   repo,
		opts:   opts,
		logger: logging.NewLogger("character-service"),
	}
}

// Repository returns the underlying repository.
func (s *CharacterService) Repository() *repository.CharacterRepository { return s.repo }

// GetCharacterByID returns the character with id or an apperr not found.
func (s *CharacterService) GetCharacterByID(ctx context.Context, id string) (models.Character, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCharacters delegates to the repository's GetAll.
func (s *CharacterService) ListCharacters(ctx context.Context, q repository.Query) ([]models.Character, int) {
	return s.repo.GetAll(ctx, q)
}

// SearchCharacters searches by name. Queries shorter than MinSearchLength
// return an empty list.
func (s *CharacterService) SearchCharacters(ctx context.Context, query string) []models.Character {
	if !searchable(query) {
		return []models.Character{}
	}
	return s.repo.Search(ctx, query)
}

// CountCharacters returns the collection total.
func (s *CharacterService) CountCharacters(ctx context.Context) int {
	return s.repo.Count(ctx, nil)
}

// GetCharactersByFilm returns the characters appearing in film filmID.
func (s *CharacterService) GetCharactersByFilm(ctx context.Context, filmID string) []models.Character {
	s.logger.Info().Str("film_id", filmID).Msg("Listing characters of film")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourceFilms, filmID, "characters")
}

// GetCharactersFromPlanet returns the residents of planet planetID.
func (s *CharacterService) GetCharactersFromPlanet(ctx context.Context, planetID string) []models.Character {
	s.logger.Info().Str("planet_id", planetID).Msg("Listing residents of planet")
	return traverse(ctx, s.logger, s.repo, s.opts.concurrency(), repository.ResourcePlanets, planetID, "residents")
}
