package testutil

import (
	"fmt"
)

// Fixtures returns a small, internally consistent SWAPI data set whose
// URLs point at base. Index: resource -> id -> item.
func Fixtures(base string) map[string]map[string]map[string]any {
	u := func(resource string, ids ...int) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = fmt.Sprintf("%s/%s/%d/", base, resource, id)
		}
		return out
	}
	one := func(resource string, id int) string { return u(resource, id)[0] }

	return map[string]map[string]map[string]any{
		"people": {
			"1": {
				"name": "Luke Skywalker", "height": "172", "mass": "77",
				"hair_color": "blond", "skin_color": "fair", "eye_color": "blue",
				"birth_year": "19BBY", "gender": "male",
				"homeworld": one("planets", 1),
				"films":     u("films", 1, 2), "species": []string{}, "vehicles": []string{},
				"starships": u("starships", 12),
				"url":       one("people", 1),
				"created":   "2014-12-09T13:50:51.644000Z", "edited": "2014-12-20T21:17:56.891000Z",
			},
			"2": {
				"name": "C-3PO", "height": "167", "mass": "75",
				"hair_color": "n/a", "skin_color": "gold", "eye_color": "yellow",
				"birth_year": "112BBY", "gender": "n/a",
				"homeworld": one("planets", 1),
				"films":     u("films", 1, 2), "species": []string{}, "vehicles": []string{},
				"starships": []string{},
				"url":       one("people", 2),
				"created":   "2014-12-10T15:10:51.357000Z", "edited": "2014-12-20T21:17:50.309000Z",
			},
			"4": {
				"name": "Darth Vader", "height": "202", "mass": "136",
				"hair_color": "none", "skin_color": "white", "eye_color": "yellow",
				"birth_year": "41.9BBY", "gender": "male",
				"homeworld": one("planets", 1),
				"films":     u("films", 1, 2), "species": []string{}, "vehicles": []string{},
				"starships": []string{},
				"url":       one("people", 4),
				"created":   "2014-12-10T15:18:20.704000Z", "edited": "2014-12-20T21:17:50.313000Z",
			},
			"5": {
				"name": "Leia Organa", "height": "150", "mass": "49",
				"hair_color": "brown", "skin_color": "light", "eye_color": "brown",
				"birth_year": "19BBY", "gender": "female",
				"homeworld": one("planets", 2),
				"films":     u("films", 1, 2), "species": []string{}, "vehicles": []string{},
				"starships": []string{},
				"url":       one("people", 5),
				"created":   "2014-12-10T15:20:09.791000Z", "edited": "2014-12-20T21:17:50.315000Z",
			},
		},
		"films": {
			"1": {
				"title": "A New Hope", "episode_id": 4,
				"opening_crawl": "It is a period of civil war.",
				"director":      "George Lucas", "producer": "Gary Kurtz, Rick McCallum",
				"release_date": "1977-05-25",
				"characters":   u("people", 1, 2, 4, 5),
				"planets":      u("planets", 1, 2),
				"starships":    u("starships", 9, 12),
				"vehicles":     []string{}, "species": []string{},
				"url":          one("films", 1),
				"created":      "2014-12-10T14:23:31.880000Z", "edited": "2014-12-20T19:49:45.256000Z",
			},
			"2": {
				"title": "The Empire Strikes Back", "episode_id": 5,
				"opening_crawl": "It is a dark time for the Rebellion.",
				"director":      "Irvin Kershner", "producer": "Gary Kurtz, Rick McCallum",
				"release_date": "1980-05-17",
				"characters":   u("people", 1, 2, 4, 5),
				"planets":      u("planets", 3),
				"starships":    u("starships", 12),
				"vehicles":     []string{}, "species": []string{},
				"url":          one("films", 2),
				"created":      "2014-12-12T11:26:24.656000Z", "edited": "2014-12-15T13:07:53.386000Z",
			},
		},
		"planets": {
			"1": {
				"name": "Tatooine", "rotation_period": "23", "orbital_period": "304",
				"diameter": "10465", "climate": "arid", "gravity": "1 standard",
				"terrain": "desert", "surface_water": "1", "population": "200000",
				"residents": u("people", 1, 2, 4),
				"films":     u("films", 1),
				"url":       one("planets", 1),
				"created":   "2014-12-09T13:50:49.641000Z", "edited": "2014-12-20T20:58:18.411000Z",
			},
			"2": {
				"name": "Alderaan", "rotation_period": "24", "orbital_period": "364",
				"diameter": "12500", "climate": "temperate", "gravity": "1 standard",
				"terrain": "grasslands, mountains", "surface_water": "40", "population": "2000000000",
				"residents": u("people", 5),
				"films":     u("films", 1),
				"url":       one("planets", 2),
				"created":   "2014-12-10T11:35:48.479000Z", "edited": "2014-12-20T20:58:18.420000Z",
			},
			"3": {
				"name": "Hoth", "rotation_period": "23", "orbital_period": "549",
				"diameter": "7200", "climate": "frozen", "gravity": "1.1 standard",
				"terrain": "tundra, ice caves, mountain ranges", "surface_water": "100", "population": "unknown",
				"residents": []string{},
				"films":     u("films", 2),
				"url":       one("planets", 3),
				"created":   "2014-12-10T11:39:13.934000Z", "edited": "2014-12-20T20:58:18.423000Z",
			},
		},
		"starships": {
			"9": {
				"name": "Death Star", "model": "DS-1 Orbital Battle Station",
				"manufacturer": "Imperial Department of Military Research, Sienar Fleet Systems",
				"cost_in_credits": "1000000000000", "length": "120000", "max_atmosphering_speed": "n/a",
				"crew": "342,953", "passengers": "843,342", "cargo_capacity": "1000000000000",
				"consumables": "3 years", "hyperdrive_rating": "4.0", "MGLT": "10",
				"starship_class": "Deep Space Mobile Battlestation",
				"pilots": []string{},
				"films":  u("films", 1),
				"url":    one("starships", 9),
				"created": "2014-12-10T16:36:50.509000Z", "edited": "2014-12-20T21:26:24.783000Z",
			},
			"12": {
				"name": "X-wing", "model": "T-65 X-wing",
				"manufacturer": "Incom Corporation",
				"cost_in_credits": "149999", "length": "12.5", "max_atmosphering_speed": "1050",
				"crew": "1", "passengers": "0", "cargo_capacity": "110",
				"consumables": "1 week", "hyperdrive_rating": "1.0", "MGLT": "100",
				"starship_class": "Starfighter",
				"pilots": u("people", 1),
				"films":  u("films", 1, 2),
				"url":    one("starships", 12),
				"created": "2014-12-12T11:19:05.340000Z", "edited": "2014-12-20T21:23:49.886000Z",
			},
		},
	}
}
