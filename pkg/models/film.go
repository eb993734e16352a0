package models

// Film is an entry from the films collection.
type Film struct {
	Title        string   `json:"title" validate:"required"`
	EpisodeID    *int     `json:"episode_id,omitempty"`
	OpeningCrawl string   `json:"opening_crawl,omitempty"`
	Director     string   `json:"director,omitempty"`
	Producer     string   `json:"producer,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	Characters   []string `json:"characters"`
	Planets      []string `json:"planets"`
	Starships    []string `json:"starships"`
	Vehicles     []string `json:"vehicles"`
	Species      []string `json:"species"`
	URL          string   `json:"url,omitempty"`
	Created      string   `json:"created,omitempty"`
	Edited       string   `json:"edited,omitempty"`
}

// FilmFields is the filter/sort field table for Film.
var FilmFields = FieldTable[Film]{
	"title": func(f Film) any { return f.Title },
	"episode_id": func(f Film) any {
		if f.EpisodeID == nil {
			return nil
		}
		return *f.EpisodeID
	},
	"opening_crawl": func(f Film) any { return f.OpeningCrawl },
	"director":      func(f Film) any { return f.Director },
	"producer":      func(f Film) any { return f.Producer },
	"release_date":  func(f Film) any { return f.ReleaseDate },
	"characters":    func(f Film) any { return f.Characters },
	"planets":       func(f Film) any { return f.Planets },
	"starships":     func(f Film) any { return f.Starships },
	"vehicles":      func(f Film) any { return f.Vehicles },
	"species":       func(f Film) any { return f.Species },
	"url":           func(f Film) any { return f.URL },
	"created":       func(f Film) any { return f.Created },
	"edited":        func(f Film) any { return f.Edited },
}

// GetID implements Entity.
func (f Film) GetID() (string, bool) { return IDFromURL(f.URL) }

// Field implements Entity.
func (f Film) Field(name string) (any, bool) { return FilmFields.Lookup(f, name) }
