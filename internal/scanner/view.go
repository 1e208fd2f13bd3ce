package scanner

import (
	"fmt"

	"github.com/franckalain/nutriscan/internal/models"
)

// Display strings
const (
	UnknownName        = "Nom inconnu"
	UnknownBrand       = "Inconnue"
	BrandPrefix        = "Marque: "
	NoIngredients      = "Ingrédients non disponibles"
	MsgDecoderInitFail = "Erreur d'initialisation de la caméra"
	MsgLookupFail      = "Erreur lors de la recherche du produit"
)

// ProductView is what a display renders for a found product
type ProductView struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Nutrition   []string `json:"nutrition"`
	Ingredients string   `json:"ingredients"`
}

type nutritionItem struct {
	label string
	value *models.Quantity
	unit  string
}

// Project maps a product record onto the fields shown to the user.
// Absent, zero or empty nutriments are omitted; strings print as received.
func Project(p *models.Product) ProductView {
	if p == nil {
		p = &models.Product{}
	}

	view := ProductView{
		Name:        p.Name,
		Brand:       BrandPrefix + p.Brands,
		Nutrition:   []string{},
		Ingredients: p.IngredientsText,
	}
	if view.Name == "" {
		view.Name = UnknownName
	}
	if p.Brands == "" {
		view.Brand = BrandPrefix + UnknownBrand
	}
	if view.Ingredients == "" {
		view.Ingredients = NoIngredients
	}

	n := p.Nutriments
	if n == nil {
		return view
	}
	items := []nutritionItem{
		{"Énergie", n.Energy, "kcal"},
		{"Protéines", n.Proteins, "g"},
		{"Glucides", n.Carbohydrates, "g"},
		{"Lipides", n.Fat, "g"},
	}
	for _, item := range items {
		if item.value == nil || !item.value.Present() {
			continue
		}
		view.Nutrition = append(view.Nutrition, fmt.Sprintf("%s: %s%s", item.label, item.value, item.unit))
	}
	return view
}
