package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gusttavosants/StarWars/pkg/auth"
	"github.com/gusttavosants/StarWars/pkg/models"
	"github.com/gusttavosants/StarWars/pkg/repository"
)

// resource adapts one service to the generic list/get/search handlers.
type resource[T models.Entity] struct {
	name   string
	schema fieldSchema
	get    func(ctx context.Context, id string) (T, error)
	list   func(ctx context.Context, q repository.Query) ([]T, int)
	search func(ctx context.Context, query string) []T
}

func (s *Server) characterRoutes(r chi.Router) {
	svc := s.deps.Characters
	res := resource[models.Character]{
		name:   "characters",
		schema: schemaOf(svc.Repository().Fields()),
		get:    svc.GetCharacterByID,
		list:   svc.ListCharacters,
		search: svc.SearchCharacters,
	}
	mountResource(s, r, res)
	r.Get("/film/{id}/characters", related("id", svc.GetCharactersByFilm))
	r.Get("/planet/{id}/residents", related("id", svc.GetCharactersFromPlanet))
}

func (s *Server) filmRoutes(r chi.Router) {
	svc := s.deps.Films
	res := resource[models.Film]{
		name:   "films",
		schema: schemaOf(svc.Repository().Fields()),
		get:    svc.GetFilmByID,
		list:   svc.ListFilms,
		search: svc.SearchFilms,
	}
	mountResource(s, r, res)
	r.Get("/character/{id}", related("id", svc.GetFilmsByCharacter))
	r.Get("/planet/{id}", related("id", svc.GetFilmsByPlanet))
	r.Get("/starship/{id}", related("id", svc.GetFilmsByStarship))
	r.Get("/director/{director}", related("director", svc.GetFilmsByDirector))
}

func (s *Server) planetRoutes(r chi.Router) {
	svc := s.deps.Planets
	res := resource[models.Planet]{
		name:   "planets",
		schema: schemaOf(svc.Repository().Fields()),
		get:    svc.GetPlanetByID,
		list:   svc.ListPlanets,
		search: svc.SearchPlanets,
	}
	mountResource(s, r, res)
	r.Get("/film/{id}", related("id", svc.GetPlanetsByFilm))
	r.Get("/climate/{climate}", related("climate", svc.GetPlanetsByClimate))
}

func (s *Server) starshipRoutes(r chi.Router) {
	svc := s.deps.Starships
	res := resource[models.Starship]{
		name:   "starships",
		schema: schemaOf(svc.Repository().Fields()),
		get:    svc.GetStarshipByID,
		list:   svc.ListStarships,
		search: svc.SearchStarships,
	}
	mountResource(s, r, res)
	r.Get("/film/{id}", related("id", svc.GetStarshipsByFilm))
	r.Get("/class/{class}", related("class", svc.GetStarshipsByClass))
	r.Get("/pilot/{id}", related("id", svc.GetStarshipsByPilot))
}

func mountResource[T models.Entity](s *Server, r chi.Router, res resource[T]) {
	r.Get("/", listHandler(res))
	r.Get("/search/{query}", searchHandler(res))
	r.Get("/{id}", getHandler(s, res))
}

// listHandler serves a page of the collection. A search parameter
// replaces the repository query and reports the match count as total.
func listHandler[T models.Entity](res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseListParams(r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}

		if params.Search != "" {
			items := res.search(r.Context(), params.Search)
			writeJSON(w, r, http.StatusOK, newPage(items, len(items), params.Page, params.PageSize))
			return
		}

		q, err := params.query(res.schema)
		if err != nil {
			writeError(w, r, err)
			return
		}

		items, total := res.list(r.Context(), q)
		writeJSON(w, r, http.StatusOK, newPage(items, total, params.Page, params.PageSize))
	}
}

func getHandler[T models.Entity](s *Server, res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathParam(r, "id")
		entity, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.deps.Audit.LogResourceAccess(r.Context(), auth.UserOf(r), res.name, id, clientIP(r))
		writeJSON(w, r, http.StatusOK, entity)
	}
}

func searchHandler[T models.Entity](res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := pathParam(r, "query")
		if err := searchParam(query); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, nonNil(res.search(r.Context(), query)))
	}
}

// related serves a traversal or convenience lookup keyed by one path
// parameter. Lookups degrade to an empty list, never an error.
func related[T models.Entity](param string, lookup func(ctx context.Context, key string) []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, nonNil(lookup(r.Context(), pathParam(r, param))))
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
