package models

// Starship is an entry from the starships collection.
type Starship struct {
	Name                 string   `json:"name" validate:"required"`
	Model                string   `json:"model,omitempty"`
	Manufacturer         string   `json:"manufacturer,omitempty"`
	CostInCredits        string   `json:"cost_in_credits,omitempty"`
	Length               string   `json:"length,omitempty"`
	MaxAtmospheringSpeed string   `json:"max_atmosphering_speed,omitempty"`
	Crew                 string   `json:"crew,omitempty"`
	Passengers           string   `json:"passengers,omitempty"`
	CargoCapacity        string   `json:"cargo_capacity,omitempty"`
	Consumables          string   `json:"consumables,omitempty"`
	HyperdriveRating     string   `json:"hyperdrive_rating,omitempty"`
	MGLT                 string   `json:"MGLT,omitempty"`
	StarshipClass        string   `json:"starship_class,omitempty"`
	Pilots               []string `json:"pilots"`
	Films                []string `json:"films"`
	URL                  string   `json:"url,omitempty"`
	Created              string   `json:"created,omitempty"`
	Edited               string   `json:"edited,omitempty"`
}

// StarshipFields is the filter/sort field table for Starship.
// The upstream "MGLT" key is addressed as "mglt".
var StarshipFields = FieldTable[Starship]{
	"name":                   func(s Starship) any { return s.Name },
	"model":                  func(s Starship) any { return s.Model },
	"manufacturer":           func(s Starship) any { return s.Manufacturer },
	"cost_in_credits":        func(s Starship) any { return s.CostInCredits },
	"length":                 func(s Starship) any { return s.Length },
	"max_atmosphering_speed": func(s Starship) any { return s.MaxAtmospheringSpeed },
	"crew":                   func(s Starship) any { return s.Crew },
	"passengers":             func(s Starship) any { return s.Passengers },
	"cargo_capacity":         func(s Starship) any { return s.CargoCapacity },
	"consumables":            func(s Starship) any { return s.Consumables },
	"hyperdrive_rating":      func(s Starship) any { return s.HyperdriveRating },
	"mglt":                   func(s Starship) any { return s.MGLT },
	"starship_class":         func(s Starship) any { return s.StarshipClass },
	"pilots":                 func(s Starship) any { return s.Pilots },
	"films":                  func(s Starship) any { return s.Films },
	"url":                    func(s Starship) any { return s.URL },
	"created":                func(s Starship) any { return s.Created },
	"edited":                 func(s Starship) any { return s.Edited },
}

// GetID implements Entity.
func (s Starship) GetID() (string, bool) { return IDFromURL(s.URL) }

// Field implements Entity.
func (s Starship) Field(name string) (any, bool) { return StarshipFields.Lookup(s, name) }
