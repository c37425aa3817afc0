package recipe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fieldforge/fieldforge/pkg/field"
)

type stubRecipe struct {
	NoSetup
	NLOnly
	name string
}

func (r *stubRecipe) Name() string               { return r.name }
func (r *stubRecipe) Product() string            { return "x" }
func (r *stubRecipe) Ingredients() []string      { return nil }
func (r *stubRecipe) ExecuteNL(*field.Set) error { return nil }

func stubFactory(name string) Factory {
	return func(Params) (Recipe, error) {
		return &stubRecipe{name: name}, nil
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("Recipe_A", stubFactory("Recipe_A")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := reg.Register("Recipe_A", stubFactory("Recipe_A"))
	if err == nil {
		t.Fatal("Expected error for duplicate registration")
	}
	if KindOf(err) != KindDuplicateRecipe {
		t.Errorf("Expected duplicate_recipe kind, got %s", KindOf(err))
	}

	// The first registration must survive the rejected second one.
	if !reg.Has("Recipe_A") {
		t.Error("Expected original registration to remain")
	}
}

func TestRegistry_Create_Unknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Create("Nope_A", nil)
	if err == nil {
		t.Fatal("Expected error for unknown recipe")
	}
	if KindOf(err) != KindUnknownRecipe {
		t.Errorf("Expected unknown_recipe kind, got %s", KindOf(err))
	}
}

func TestRegistry_Create_FactoryError(t *testing.T) {
	reg := NewRegistry()
	cause := fmt.Errorf("bad parameter")
	reg.Register("Broken_A", func(Params) (Recipe, error) {
		return nil, cause
	})

	_, err := reg.Create("Broken_A", nil)
	if err == nil {
		t.Fatal("Expected factory error to propagate")
	}
	if KindOf(err) != KindValidation {
		t.Errorf("Expected validation kind, got %s", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("Expected wrapped factory error to be reachable")
	}
}

func TestRegistry_Names_Sorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"C_A", "A_A", "B_A"} {
		if err := reg.Register(name, stubFactory(name)); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	names := reg.Names()
	want := []string{"A_A", "B_A", "C_A"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d names, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Expected names[%d] = %s, got %s", i, name, names[i])
		}
	}
}

func TestParams_Getters(t *testing.T) {
	p := Params{
		"kappa":  0.286,
		"halo":   true,
		"levels": 70,
		"name":   "exner",
		// YAML unmarshals small numbers as int.
		"scale": 2,
	}

	if got := p.Float("kappa", 0); got != 0.286 {
		t.Errorf("Expected 0.286, got %g", got)
	}
	if got := p.Float("scale", 0); got != 2.0 {
		t.Errorf("Expected int coerced to 2.0, got %g", got)
	}
	if got := p.Float("missing", 1.5); got != 1.5 {
		t.Errorf("Expected default 1.5, got %g", got)
	}
	if !p.Bool("halo", false) {
		t.Error("Expected halo true")
	}
	if got := p.Int("levels", 0); got != 70 {
		t.Errorf("Expected 70, got %d", got)
	}
	if got := p.String("name", ""); got != "exner" {
		t.Errorf("Expected exner, got %s", got)
	}
}

func TestNLOnly_RejectsLinearModes(t *testing.T) {
	r := &stubRecipe{name: "Diag_A"}

	if r.HasTLAD() {
		t.Error("Expected HasTLAD false")
	}
	if err := r.ExecuteTL(nil, nil); !IsKind(err, KindNoTLAD) {
		t.Errorf("Expected no_tl_ad kind from ExecuteTL, got: %v", err)
	}
	if err := r.ExecuteAD(nil, nil); !IsKind(err, KindNoTLAD) {
		t.Errorf("Expected no_tl_ad kind from ExecuteAD, got: %v", err)
	}
}
