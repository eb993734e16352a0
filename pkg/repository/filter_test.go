package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/models"
)

func TestMatchFilter(t *testing.T) {
	tests := []struct {
		name  string
		value any
		c     Criterion
		want  bool
	}{
		{"eq string", "male", Eq("male"), true},
		{"eq string mismatch", "male", Eq("female"), false},
		{"eq is case-sensitive", "Male", Eq("male"), false},
		{"eq numbers across types", 4, Eq(4.0), true},
		{"eq string vs number", "172", Eq(172), false},
		{"eq nil", nil, Eq(nil), true},
		{"ne", "male", Criterion{Operator: OpNe, Value: "female"}, true},
		{"ne same", "male", Criterion{Operator: OpNe, Value: "male"}, false},
		{"contains case-insensitive", "Luke Skywalker", Contains("luke"), true},
		{"contains upper query", "Luke Skywalker", Contains("SKY"), true},
		{"contains miss", "Luke Skywalker", Contains("vader"), false},
		{"contains stringifies numbers", 1977, Contains("97"), true},
		{"contains on nil field", nil, Contains("x"), false},
		{"contains over list field", []string{"https://swapi.dev/api/films/1/"}, Contains("films/1"), true},
		{"in member", "arid", In("arid", "temperate"), true},
		{"in non-member", "frozen", In("arid", "temperate"), false},
		{"in with string slice", "arid", Criterion{Operator: OpIn, Value: []string{"arid"}}, true},
		{"in with scalar value", "arid", Criterion{Operator: OpIn, Value: "arid"}, false},
		{"gt never matches", 5, Criterion{Operator: OpGt, Value: 1}, false},
		{"gte never matches", 5, Criterion{Operator: OpGte, Value: 5}, false},
		{"lt never matches", 1, Criterion{Operator: OpLt, Value: 5}, false},
		{"lte never matches", 5, Criterion{Operator: OpLte, Value: 5}, false},
		{"unknown operator", "x", Criterion{Operator: "regex", Value: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchFilter(tt.value, tt.c); got != tt.want {
				t.Errorf("matchFilter(%v, %+v) = %v, want %v", tt.value, tt.c, got, tt.want)
			}
		})
	}
}

func TestFilterEntities_EqReturnsAllOrNone(t *testing.T) {
	people := []models.Character{
		{Name: "Luke Skywalker", Gender: "male"},
		{Name: "Darth Vader", Gender: "male"},
	}

	all, err := filterEntities(people, Filters{"gender": Eq("male")})
	if err != nil || len(all) != 2 {
		t.Errorf("eq match = (%d, %v), want full set", len(all), err)
	}

	none, err := filterEntities(people, Filters{"gender": Eq("female")})
	if err != nil || len(none) != 0 {
		t.Errorf("eq miss = (%d, %v), want empty", len(none), err)
	}
}

func TestFilterEntities_SequentialAnd(t *testing.T) {
	people := []models.Character{
		{Name: "Luke Skywalker", Gender: "male", EyeColor: "blue"},
		{Name: "Darth Vader", Gender: "male", EyeColor: "yellow"},
		{Name: "Leia Organa", Gender: "female", EyeColor: "brown"},
	}

	got, err := filterEntities(people, Filters{"gender": Eq("male"), "eye_color": Eq("yellow")})
	if err != nil {
		t.Fatalf("filterEntities failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Darth Vader" {
		t.Errorf("got %+v, want [Darth Vader]", got)
	}
}

func TestFilterEntities_InvalidField(t *testing.T) {
	people := []models.Character{{Name: "Luke Skywalker"}}

	_, err := filterEntities(people, Filters{"midichlorians": Eq("high")})
	if !errors.Is(err, apperr.ErrInvalidFilter) {
		t.Fatalf("error = %v, want invalid filter", err)
	}
	if !strings.Contains(err.Error(), "midichlorians") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestFilterEntities_EmptyInputSkipsFieldCheck(t *testing.T) {
	got, err := filterEntities([]models.Character{}, Filters{"midichlorians": Eq("high")})
	if err != nil || len(got) != 0 {
		t.Errorf("filterEntities(empty) = (%v, %v), want (empty, nil)", got, err)
	}
}

func TestFilterEntities_FirstEntityOnlyCheck(t *testing.T) {
	// Only the first remaining entity is probed for the field.
	firstHas := []mapEntity{
		{"kind": "a", "rank": 1},
		{"kind": "b"},
	}
	got, err := filterEntities(firstHas, Filters{"rank": Eq(1)})
	if err != nil {
		t.Fatalf("first entity has field, got error %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d entities, want 1", len(got))
	}

	firstLacks := []mapEntity{
		{"kind": "b"},
		{"kind": "a", "rank": 1},
	}
	if _, err := filterEntities(firstLacks, Filters{"rank": Eq(1)}); !errors.Is(err, apperr.ErrInvalidFilter) {
		t.Errorf("first entity lacks field, error = %v, want invalid filter", err)
	}
}

func TestSortEntities(t *testing.T) {
	people := []models.Character{
		{Name: "Luke Skywalker", Height: "172"},
		{Name: "C-3PO", Height: "167"},
		{Name: "Leia Organa", Height: "150"},
		{Name: "Darth Vader", Height: "202"},
	}

	asc, err := sortEntities(people, "name", SortAsc)
	if err != nil {
		t.Fatalf("sort asc failed: %v", err)
	}
	for i := 1; i < len(asc); i++ {
		if asc[i-1].Name > asc[i].Name {
			t.Errorf("asc order broken at %d: %q > %q", i, asc[i-1].Name, asc[i].Name)
		}
	}

	desc, err := sortEntities(people, "name", SortDesc)
	if err != nil {
		t.Fatalf("sort desc failed: %v", err)
	}
	for i := 1; i < len(desc); i++ {
		if desc[i-1].Name < desc[i].Name {
			t.Errorf("desc order broken at %d: %q < %q", i, desc[i-1].Name, desc[i].Name)
		}
	}

	if people[0].Name != "Luke Skywalker" {
		t.Error("sortEntities mutated its input")
	}
}

func TestSortEntities_Stable(t *testing.T) {
	people := []models.Character{
		{Name: "A", Gender: "male"},
		{Name: "B", Gender: "female"},
		{Name: "C", Gender: "male"},
		{Name: "D", Gender: "female"},
	}

	asc, _ := sortEntities(people, "gender", SortAsc)
	if got := names(asc); got != "B,D,A,C" {
		t.Errorf("asc = %s, want B,D,A,C", got)
	}

	desc, _ := sortEntities(people, "gender", SortDesc)
	if got := names(desc); got != "A,C,B,D" {
		t.Errorf("desc = %s, want A,C,B,D", got)
	}
}

func TestSortEntities_InvalidField(t *testing.T) {
	_, err := sortEntities([]models.Character{{Name: "Luke"}}, "lightsaber", SortAsc)
	if !errors.Is(err, apperr.ErrInvalidSort) {
		t.Fatalf("error = %v, want invalid sort", err)
	}
	if !strings.Contains(err.Error(), "lightsaber") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestSortEntities_EmptyUnchanged(t *testing.T) {
	got, err := sortEntities([]models.Character{}, "lightsaber", SortAsc)
	if err != nil || len(got) != 0 {
		t.Errorf("sortEntities(empty) = (%v, %v), want (empty, nil)", got, err)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{nil, nil, 0},
		{nil, "a", -1},
		{"a", nil, 1},
		{4, 5, -1},
		{5.5, 5, 1},
		{"abc", "abd", -1},
		{[]string{"a"}, []string{"a", "b"}, -1},
		{"x", "x", 0},
	}
	for _, tt := range tests {
		if got := compareValues(tt.a, tt.b); got != tt.want {
			t.Errorf("compareValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFiltersString(t *testing.T) {
	f := Filters{"name": Contains("sky"), "gender": Eq("male")}
	if got, want := f.String(), `"gender"="eq":"male","name"="contains":"sky"`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Filters(nil).String(); got != "" {
		t.Errorf("nil String() = %q, want empty", got)
	}
}

func TestFiltersString_Distinct(t *testing.T) {
	tests := []struct {
		name string
		a, b Filters
	}{
		{"one value with a space vs two values", Filters{"name": In("a b")}, Filters{"name": In("a", "b")}},
		{"separator inside a value", Filters{"name": Eq("x,url=eq:y")}, Filters{"name": Eq("x"), "url": Eq("y")}},
		{"int vs numeric string", Filters{"height": Eq(4)}, Filters{"height": Eq("4")}},
		{"int vs float", Filters{"height": Eq(4)}, Filters{"height": Eq(4.0)}},
		{"nil vs null string", Filters{"height": Eq(nil)}, Filters{"height": Eq("null")}},
		{"typed slice vs list", Filters{"name": Criterion{Operator: OpIn, Value: []string{"a", "b"}}}, Filters{"name": In("a,b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if a, b := tt.a.String(), tt.b.String(); a == b {
				t.Errorf("String() = %q for both filter sets", a)
			}
		})
	}
}

func TestParseOperator(t *testing.T) {
	for _, op := range Operators {
		if got, ok := ParseOperator(strings.ToUpper(string(op))); !ok || got != op {
			t.Errorf("ParseOperator(%q) = (%q, %v)", op, got, ok)
		}
	}
	if _, ok := ParseOperator("regex"); ok {
		t.Error("ParseOperator(regex) should fail")
	}
}

func names(cs []models.Character) string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return strings.Join(out, ",")
}
