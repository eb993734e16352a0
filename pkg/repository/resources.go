package repository

import (
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/models"
)

// SWAPI collection names.
const (
	ResourcePeople    = "people"
	ResourceFilms     = "films"
	ResourcePlanets   = "planets"
	ResourceStarships = "starships"
)

type (
	CharacterRepository = Repository[models.Character]
	FilmRepository      = Repository[models.Film]
	PlanetRepository    = Repository[models.Planet]
	StarshipRepository  = Repository[models.Starship]
)

// NewCharacterRepository binds the people collection to Character.
func NewCharacterRepository(source Source, c cache.Cache, opts Options) *CharacterRepository {
	return New(ResourcePeople, models.CharacterFields, source, c, opts)
}

// NewFilmRepository binds the films collection to Film.
func NewFilmRepository(source Source, c cache.Cache, opts Options) *FilmRepository {
	return New(ResourceFilms, models.FilmFields, source, c, opts)
}

// NewPlanetRepository binds the planets collection to Planet.
func NewPlanetRepository(source Source, c cache.Cache, opts Options) *PlanetRepository {
	return New(ResourcePlanets, models.PlanetFields, source, c, opts)
}

// NewStarshipRepository binds the starships collection to Starship.
func NewStarshipRepository(source Source, c cache.Cache, opts Options) *StarshipRepository {
	return New(ResourceStarships, models.StarshipFields, source, c, opts)
}
