package scanner

import (
	"encoding/json"
	"testing"

	"github.com/franckalain/nutriscan/internal/models"
)

func decodeProduct(t *testing.T, raw string) *models.Product {
	t.Helper()
	var p models.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal product: %v", err)
	}
	return &p
}

func TestProjectPartialNutriments(t *testing.T) {
	p := decodeProduct(t, `{"product_name":"Milk","brands":"Acme","nutriments":{"energy_100g":250,"proteins_100g":3.2}}`)

	v := Project(p)
	if v.Name != "Milk" {
		t.Fatalf("name mismatch: %q", v.Name)
	}
	if v.Brand != "Marque: Acme" {
		t.Fatalf("brand mismatch: %q", v.Brand)
	}
	if len(v.Nutrition) != 2 {
		t.Fatalf("nutrition len mismatch: %q", v.Nutrition)
	}
	if v.Nutrition[0] != "Énergie: 250kcal" {
		t.Fatalf("energy mismatch: %q", v.Nutrition[0])
	}
	if v.Nutrition[1] != "Protéines: 3.2g" {
		t.Fatalf("protein mismatch: %q", v.Nutrition[1])
	}
	if v.Ingredients != NoIngredients {
		t.Fatalf("ingredients mismatch: %q", v.Ingredients)
	}
}

func TestProjectUnknownPlaceholders(t *testing.T) {
	v := Project(decodeProduct(t, `{"nutriments":{}}`))
	if v.Name != "Nom inconnu" {
		t.Fatalf("name mismatch: %q", v.Name)
	}
	if v.Brand != "Marque: Inconnue" {
		t.Fatalf("brand mismatch: %q", v.Brand)
	}
	if len(v.Nutrition) != 0 {
		t.Fatalf("expected empty nutrition, got %q", v.Nutrition)
	}
}

func TestProjectSkipsZeroAndKeepsOrder(t *testing.T) {
	p := decodeProduct(t, `{"product_name":"Oil","nutriments":{"fat_100g":"91,5","carbohydrates_100g":0,"energy_100g":null,"proteins_100g":0.1},"ingredients_text":"olive oil"}`)

	v := Project(p)
	want := []string{"Protéines: 0.1g", "Lipides: 91,5g"}
	if len(v.Nutrition) != len(want) {
		t.Fatalf("nutrition mismatch: %q", v.Nutrition)
	}
	for i := range want {
		if v.Nutrition[i] != want[i] {
			t.Fatalf("line %d mismatch: got=%q want=%q", i, v.Nutrition[i], want[i])
		}
	}
	if v.Ingredients != "olive oil" {
		t.Fatalf("ingredients mismatch: %q", v.Ingredients)
	}
}

func TestProjectKeepsNonNumericStrings(t *testing.T) {
	p := decodeProduct(t, `{"product_name":"Salt","nutriments":{"energy_100g":"traces","proteins_100g":"<0,5","carbohydrates_100g":"","fat_100g":"0"}}`)

	v := Project(p)
	want := []string{"Énergie: traceskcal", "Protéines: <0,5g", "Lipides: 0g"}
	if len(v.Nutrition) != len(want) {
		t.Fatalf("nutrition mismatch: %q", v.Nutrition)
	}
	for i := range want {
		if v.Nutrition[i] != want[i] {
			t.Fatalf("line %d mismatch: got=%q want=%q", i, v.Nutrition[i], want[i])
		}
	}
	if v.Name != "Salt" {
		t.Fatalf("name mismatch: %q", v.Name)
	}
}

func TestProjectWithoutNutriments(t *testing.T) {
	v := Project(&models.Product{Name: "Water"})
	if v.Nutrition == nil || len(v.Nutrition) != 0 {
		t.Fatalf("expected empty non-nil nutrition, got %#v", v.Nutrition)
	}
	if v := Project(nil); v.Name != UnknownName {
		t.Fatalf("nil product name mismatch: %q", v.Name)
	}
}
