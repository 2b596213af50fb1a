package projection_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"birdwatch/internal/projection"
)

// ─────────────────────────────────────────────────────────────
// Fixtures: an in-memory bird / location / sighting graph
// ─────────────────────────────────────────────────────────────

type bird struct {
	ID      int64
	Name    string
	Species string
	Color   string
}

type location struct {
	ID        int64
	Latitude  float64
	Longitude float64
	Country   string
}

type sighting struct {
	ID         int64
	BirdID     int64
	LocationID int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type graph struct {
	birds     map[int64]bird
	locations map[int64]location
	sightings []sighting
	failBird  error
}

type shapes struct {
	bird, location, sighting *projection.Shape
}

func newShapes(g *graph) shapes {
	b := projection.NewShape[bird]("bird")
	l := projection.NewShape[location]("location")
	s := projection.NewShape[sighting]("sighting")

	b.Field("id", func(r bird) any { return r.ID }).
		Field("name", func(r bird) any { return r.Name }).
		Field("species", func(r bird) any { return r.Species }).
		Field("color", func(r bird) any { return r.Color }).
		HasMany("sightings", s.Shape(), func(_ context.Context, r bird) ([]any, error) {
			var out []sighting
			for _, x := range g.sightings {
				if x.BirdID == r.ID {
					out = append(out, x)
				}
			}
			return projection.Items(out), nil
		})

	l.Field("id", func(r location) any { return r.ID }).
		Field("latitude", func(r location) any { return r.Latitude }).
		Field("longitude", func(r location) any { return r.Longitude }).
		Field("country", func(r location) any { return r.Country })

	s.Field("id", func(r sighting) any { return r.ID }).
		Field("bird_id", func(r sighting) any { return r.BirdID }).
		Field("location_id", func(r sighting) any { return r.LocationID }).
		Field("created_at", func(r sighting) any { return r.CreatedAt }).
		Field("updated_at", func(r sighting) any { return r.UpdatedAt }).
		HasOne("bird", b.Shape(), func(_ context.Context, r sighting) (any, bool, error) {
			if g.failBird != nil {
				return nil, false, g.failBird
			}
			x, ok := g.birds[r.BirdID]
			return x, ok, nil
		}).
		HasOne("location", l.Shape(), func(_ context.Context, r sighting) (any, bool, error) {
			x, ok := g.locations[r.LocationID]
			return x, ok, nil
		})

	return shapes{bird: b.Build(), location: l.Build(), sighting: s.Build()}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func grackleGraph(t *testing.T) *graph {
	return &graph{
		birds: map[int64]bird{
			2: {ID: 2, Name: "Grackle", Species: "Quiscalus Quiscula", Color: "black"},
		},
		locations: map[int64]location{
			2: {ID: 2, Latitude: 30.26715, Longitude: -97.74306, Country: "US"},
		},
		sightings: []sighting{{
			ID: 2, BirdID: 2, LocationID: 2,
			CreatedAt: mustTime(t, "2019-05-14T14:56:35.978Z"),
			UpdatedAt: mustTime(t, "2019-05-15T00:00:00Z"),
		}},
	}
}

var sightingView = projection.Spec{
	Except: []string{"updated_at"},
	Include: []projection.Inclusion{
		projection.Include("bird", projection.Only("name", "species")),
		projection.Include("location", projection.Only("latitude", "longitude")),
	},
}

// ─────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────

func TestProject_GrackleScenario(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], sightingView)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	got, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":2,"bird_id":2,"location_id":2,"created_at":"2019-05-14T14:56:35.978Z",` +
		`"bird":{"name":"Grackle","species":"Quiscalus Quiscula"},` +
		`"location":{"latitude":30.26715,"longitude":-97.74306}}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestProject_OwnFieldsMinusExcept(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	for _, except := range [][]string{nil, {"updated_at"}, {"id", "created_at"}, sh.sighting.FieldNames()} {
		obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], projection.Except(except...))
		if err != nil {
			t.Fatalf("except %v: %v", except, err)
		}
		drop := map[string]bool{}
		for _, f := range except {
			drop[f] = true
		}
		var want []string
		for _, f := range sh.sighting.FieldNames() {
			if !drop[f] {
				want = append(want, f)
			}
		}
		if got := obj.Keys(); !sameStrings(got, want) {
			t.Errorf("except %v: keys = %v, want %v", except, got, want)
		}
	}
}

func TestProject_OnlyIsExactAndOrdered(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], projection.Only("updated_at", "id"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := obj.Keys(), []string{"updated_at", "id"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestProject_OnlyWinsOverExcept(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	spec := projection.Spec{Only: []string{"id", "bird_id"}, Except: []string{"id"}}
	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], spec)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := obj.Keys(), []string{"id", "bird_id"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestProject_EmptyOnlyEmitsNoFields(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], projection.Only())
	if err != nil {
		t.Fatal(err)
	}
	got, _ := json.Marshal(obj)
	if string(got) != `{}` {
		t.Errorf("got %s, want {}", got)
	}
}

func TestProject_RelationsNeverIncludedByDefault(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	specs := []projection.Spec{
		{},
		projection.Only("id"),
		projection.Except("id"),
		projection.Spec{Include: []projection.Inclusion{projection.Include("bird", projection.Spec{})}},
	}
	for _, spec := range specs {
		obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], spec)
		if err != nil {
			t.Fatal(err)
		}
		included := map[string]bool{}
		for _, inc := range spec.Include {
			included[inc.Relation] = true
		}
		for _, rel := range sh.sighting.RelationNames() {
			if _, ok := obj.Get(rel); ok != included[rel] {
				t.Errorf("spec %+v: relation %q present=%v, want %v", spec, rel, ok, included[rel])
			}
		}
	}
}

func TestProject_PluralRelation(t *testing.T) {
	g := grackleGraph(t)
	g.sightings = append(g.sightings, sighting{ID: 3, BirdID: 2, LocationID: 2})
	sh := newShapes(g)

	spec := projection.Only("name").With(projection.Include("sightings", projection.Only("id")))
	obj, err := projection.Project(context.Background(), sh.bird, g.birds[2], spec)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := json.Marshal(obj)
	if want := `{"name":"Grackle","sightings":[{"id":2},{"id":3}]}`; string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestProject_AbsentRelations(t *testing.T) {
	g := &graph{
		birds:     map[int64]bird{9: {ID: 9, Name: "Lonely"}},
		locations: map[int64]location{},
		sightings: []sighting{{ID: 1, BirdID: 404, LocationID: 404}},
	}
	sh := newShapes(g)

	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0],
		projection.Only("id").With(projection.Include("bird", projection.Spec{})))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := json.Marshal(obj)
	if want := `{"id":1,"bird":null}`; string(got) != want {
		t.Errorf("singular: got %s, want %s", got, want)
	}

	obj, err = projection.Project(context.Background(), sh.bird, g.birds[9],
		projection.Only("name").With(projection.Include("sightings", projection.Spec{})))
	if err != nil {
		t.Fatal(err)
	}
	got, _ = json.Marshal(obj)
	if want := `{"name":"Lonely","sightings":[]}`; string(got) != want {
		t.Errorf("plural: got %s, want %s", got, want)
	}
}

func TestProject_AcceptsPointers(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	b := g.birds[2]
	obj, err := projection.Project(context.Background(), sh.bird, &b, projection.Only("name"))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := obj.Get("name"); v != "Grackle" {
		t.Errorf("name = %v", v)
	}
}

func TestProject_ShapeMismatch(t *testing.T) {
	sh := newShapes(grackleGraph(t))
	_, err := projection.Project(context.Background(), sh.bird, location{}, projection.Spec{})
	if !errors.Is(err, projection.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestProject_UnknownFieldProducesNoOutput(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)

	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], projection.Only("nonexistent_field"))
	if obj != nil {
		t.Errorf("expected no output, got %v", obj)
	}
	var fe *projection.UnknownFieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if fe.Field != "nonexistent_field" || fe.Path != "sighting" {
		t.Errorf("unexpected error detail: %+v", fe)
	}
	if !errors.Is(err, projection.ErrUnknownField) {
		t.Error("errors.Is(ErrUnknownField) = false")
	}
}

func TestProject_UnknownNestedNames(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)
	ctx := context.Background()

	_, err := projection.Project(ctx, sh.sighting, g.sightings[0],
		projection.Spec{Include: []projection.Inclusion{projection.Include("bird", projection.Except("wingspan"))}})
	var fe *projection.UnknownFieldError
	if !errors.As(err, &fe) || fe.Path != "sighting.bird" {
		t.Fatalf("expected nested UnknownFieldError, got %v", err)
	}

	_, err = projection.Project(ctx, sh.sighting, g.sightings[0],
		projection.Spec{Include: []projection.Inclusion{projection.Include("observer", projection.Spec{})}})
	var re *projection.UnknownRelationError
	if !errors.As(err, &re) || re.Relation != "observer" {
		t.Fatalf("expected UnknownRelationError, got %v", err)
	}
	if !projection.IsConfigError(err) {
		t.Error("IsConfigError = false")
	}
}

func TestProject_ResolverErrorPropagates(t *testing.T) {
	g := grackleGraph(t)
	boom := errors.New("db down")
	g.failBird = boom
	sh := newShapes(g)

	obj, err := projection.Project(context.Background(), sh.sighting, g.sightings[0], sightingView)
	if !errors.Is(err, boom) {
		t.Fatalf("expected resolver error, got %v", err)
	}
	if obj != nil {
		t.Errorf("expected no partial output, got %v", obj)
	}
}

func TestProjectAll_MapIndependence(t *testing.T) {
	g := grackleGraph(t)
	g.birds[3] = bird{ID: 3, Name: "Cardinal", Species: "Cardinalis cardinalis", Color: "red"}
	g.sightings = append(g.sightings,
		sighting{ID: 5, BirdID: 3, LocationID: 2},
		sighting{ID: 4, BirdID: 2, LocationID: 99},
	)
	sh := newShapes(g)
	ctx := context.Background()

	all, err := projection.ProjectAll(ctx, sh.sighting, g.sightings, sightingView)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(g.sightings) {
		t.Fatalf("len = %d, want %d", len(all), len(g.sightings))
	}
	for i, rec := range g.sightings {
		one, err := projection.Project(ctx, sh.sighting, rec, sightingView)
		if err != nil {
			t.Fatal(err)
		}
		a, _ := json.Marshal(all[i])
		b, _ := json.Marshal(one)
		if string(a) != string(b) {
			t.Errorf("index %d: collection %s != single %s", i, a, b)
		}
	}
}

func TestProjectAll_Empty(t *testing.T) {
	sh := newShapes(grackleGraph(t))
	all, err := projection.ProjectAll(context.Background(), sh.sighting, []sighting{}, sightingView)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := json.Marshal(all)
	if string(got) != `[]` {
		t.Errorf("got %s, want []", got)
	}
}

func TestProject_ShapeIdempotence(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)
	ctx := context.Background()

	first, err := projection.Project(ctx, sh.sighting, g.sightings[0], projection.Except("updated_at"))
	if err != nil {
		t.Fatal(err)
	}

	// Treat the output as a new flat record with exactly the emitted fields.
	b := projection.NewShape[projection.Object]("output")
	for _, key := range first.Keys() {
		k := key
		b.Field(k, func(o projection.Object) any { v, _ := o.Get(k); return v })
	}
	second, err := projection.Project(ctx, b.Build(), first, projection.Only(first.Keys()...))
	if err != nil {
		t.Fatal(err)
	}
	x, _ := json.Marshal(first)
	y, _ := json.Marshal(second)
	if string(x) != string(y) {
		t.Errorf("re-projection changed structure:\n%s\n%s", x, y)
	}
}

func TestSerializer_ValidatesOnConstruction(t *testing.T) {
	sh := newShapes(grackleGraph(t))
	if _, err := projection.NewSerializer[sighting](sh.sighting, projection.Only("nope")); !errors.Is(err, projection.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSerializer_MarshalAll(t *testing.T) {
	g := grackleGraph(t)
	sh := newShapes(g)
	ser, err := projection.NewSerializer[sighting](sh.sighting, projection.Only("id"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := ser.MarshalAll(context.Background(), g.sightings)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[{"id":2}]` {
		t.Errorf("got %s", got)
	}
}

func TestShape_DuplicateNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	projection.NewShape[bird]("bird").
		Field("name", func(b bird) any { return b.Name }).
		Field("name", func(b bird) any { return b.Name })
}

func sameStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
