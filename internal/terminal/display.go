package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/franckalain/nutriscan/internal/scanner"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	brandStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Underline(true)
)

// Display renders scan results as text blocks on w
type Display struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a terminal display
func New(w io.Writer) *Display {
	return &Display{w: w}
}

func (d *Display) HideResult() {
	d.println(hintStyle.Render("En attente d'un code-barres..."))
}

func (d *Display) ShowLoading() {
	d.println(hintStyle.Render("Recherche du produit..."))
}

func (d *Display) ShowProduct(view scanner.ProductView) {
	d.println(Render(view))
}

func (d *Display) Alert(msg string) {
	d.println(alertStyle.Render("! " + msg))
}

func (d *Display) println(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, s)
}

// Render lays out a product view as a bordered panel
func Render(view scanner.ProductView) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(view.Name))
	b.WriteString("\n")
	b.WriteString(brandStyle.Render(view.Brand))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Valeurs nutritionnelles (100g)"))
	b.WriteString("\n")
	for _, line := range view.Nutrition {
		b.WriteString(itemStyle.Render("• " + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Ingrédients"))
	b.WriteString("\n")
	b.WriteString(view.Ingredients)

	return panelStyle.Render(b.String()) + "\n" + hintStyle.Render("Entrée pour scanner à nouveau")
}
