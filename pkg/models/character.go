package models

// Character is a person from the people collection.
type Character struct {
	Name      string   `json:"name" validate:"required"`
	Height    string   `json:"height,omitempty"`
	Mass      string   `json:"mass,omitempty"`
	HairColor string   `json:"hair_color,omitempty"`
	SkinColor string   `json:"skin_color,omitempty"`
	EyeColor  string   `json:"eye_color,omitempty"`
	BirthYear string   `json:"birth_year,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Homeworld string   `json:"homeworld,omitempty"`
	Films     []string `json:"films"`
	Species   []string `json:"species"`
	Vehicles  []string `json:"vehicles"`
	Starships []string `json:"starships"`
	URL       string   `json:"url,omitempty"`
	Created   string   `json:"created,omitempty"`
	Edited    string   `json:"edited,omitempty"`
}

// CharacterFields is the filter/sort field table for Character.
var CharacterFields = FieldTable[Character]{
	"name":       func(c Character) any { return c.Name },
	"height":     func(c Character) any { return c.Height },
	"mass":       func(c Character) any { return c.Mass },
	"hair_color": func(c Character) any { return c.HairColor },
	"skin_color": func(c Character) any { return c.SkinColor },
	"eye_color":  func(c Character) any { return c.EyeColor },
	"birth_year": func(c Character) any { return c.BirthYear },
	"gender":     func(c Character) any { return c.Gender },
	"homeworld":  func(c Character) any { return c.Homeworld },
	"films":      func(c Character) any { return c.Films },
	"species":    func(c Character) any { return c.Species },
	"vehicles":   func(c Character) any { return c.Vehicles },
	"starships":  func(c Character) any { return c.Starships },
	"url":        func(c Character) any { return c.URL },
	"created":    func(c Character) any { return c.Created },
	"edited":     func(c Character) any { return c.Edited },
}

// GetID implements Entity.
func (c Character) GetID() (string, bool) { return IDFromURL(c.URL) }

// Field implements Entity.
func (c Character) Field(name string) (any, bool) { return CharacterFields.Lookup(c, name) }
