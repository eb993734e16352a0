package models

// Planet is an entry from the planets collection.
type Planet struct {
	Name           string   `json:"name" validate:"required"`
	RotationPeriod string   `json:"rotation_period,omitempty"`
	OrbitalPeriod  string   `json:"orbital_period,omitempty"`
	Diameter       string   `json:"diameter,omitempty"`
	Climate        string   `json:"climate,omitempty"`
	Gravity        string   `json:"gravity,omitempty"`
	Terrain        string   `json:"terrain,omitempty"`
	SurfaceWater   string   `json:"surface_water,omitempty"`
	Population     string   `json:"population,omitempty"`
	Residents      []string `json:"residents"`
	Films          []string `json:"films"`
	URL            string   `json:"url,omitempty"`
	Created        string   `json:"created,omitempty"`
	Edited         string   `json:"edited,omitempty"`
}

// PlanetFields is the filter/sort field table for Planet.
var PlanetFields = FieldTable[Planet]{
	"name":            func(p Planet) any { return p.Name },
	"rotation_period": func(p Planet) any { return p.RotationPeriod },
	"orbital_period":  func(p Planet) any { return p.OrbitalPeriod },
	"diameter":        func(p Planet) any { return p.Diameter },
	"climate":         func(p Planet) any { return p.Climate },
	"gravity":         func(p Planet) any { return p.Gravity },
	"terrain":         func(p Planet) any { return p.Terrain },
	"surface_water":   func(p Planet) any { return p.SurfaceWater },
	"population":      func(p Planet) any { return p.Population },
	"residents":       func(p Planet) any { return p.Residents },
	"films":           func(p Planet) any { return p.Films },
	"url":             func(p Planet) any { return p.URL },
	"created":         func(p Planet) any { return p.Created },
	"edited":          func(p Planet) any { return p.Edited },
}

// GetID implements Entity.
func (p Planet) GetID() (string, bool) { return IDFromURL(p.URL) }

// Field implements Entity.
func (p Planet) Field(name string) (any, bool) { return PlanetFields.Lookup(p, name) }
