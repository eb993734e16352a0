package cache

import (
	"testing"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "by id",
			key:  NewKey("people", OpByID, "1"),
			want: "people:by_id:1",
		},
		{
			name: "all with no filters or sort",
			key:  NewKey("people", OpAll, 1, 10, nil, "", "asc"),
			want: "people:all:1_10_none_none_asc",
		},
		{
			name: "all with sort",
			key:  NewKey("planets", OpAll, 2, 25, nil, "name", "desc"),
			want: "planets:all:2_25_none_name_desc",
		},
		{
			name: "stringer argument",
			key:  NewKey("films", OpAll, 1, 10, stringer("director=contains:lucas"), "title", "asc"),
			want: "films:all:1_10_director=contains:lucas_title_asc",
		},
		{
			name: "empty stringer renders none",
			key:  NewKey("films", OpAll, 1, 10, stringer(""), "", "asc"),
			want: "films:all:1_10_none_none_asc",
		},
		{
			name: "search",
			key:  NewKey("starships", OpSearch, "wing"),
			want: "starships:search:wing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKey_DistinctShapes(t *testing.T) {
	keys := []Key{
		NewKey("people", OpAll, 1, 10, nil, "", "asc"),
		NewKey("people", OpAll, 1, 10, nil, "", "desc"),
		NewKey("people", OpAll, 2, 10, nil, "", "asc"),
		NewKey("people", OpAll, 1, 20, nil, "", "asc"),
		NewKey("people", OpAll, 1, 10, nil, "name", "asc"),
		NewKey("people", OpAll, 1, 10, stringer("gender=eq:female"), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"name"="in":["a b"]`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"name"="in":["a","b"]`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"name"="eq":"x,url=eq:y"`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"name"="eq":"x","url"="eq":"y"`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"height"="eq":i4`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"height"="eq":"4"`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"name"="eq":"x_height"`), "", "asc"),
		NewKey("people", OpAll, 1, 10, stringer(`"name"="eq":"x"`), "height", "asc"),
		NewKey("films", OpAll, 1, 10, nil, "", "asc"),
	}

	seen := make(map[string]int)
	for i, k := range keys {
		s := k.String()
		if j, dup := seen[s]; dup {
			t.Errorf("keys[%d] and keys[%d] collide: %s", j, i, s)
		}
		seen[s] = i
	}
}

func TestKey_Determinism(t *testing.T) {
	key := NewKey("people", OpAll, 1, 10, stringer("name=contains:sky"), "height", "asc")

	first := key.String()
	for i := 0; i < 10; i++ {
		if got := key.String(); got != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, got, first)
		}
	}
}
