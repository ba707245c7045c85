// Package category holds the closed set of product categories.
package category

import (
	"context"
	"strings"

	"github.com/aexfood/orders/internal/domain/apperr"
)

// Name is a product category name.
type Name string

// Known categories.
const (
	Lanche         Name = "LANCHE"
	Acompanhamento Name = "ACOMPANHAMENTO"
	Bebida         Name = "BEBIDA"
	Sobremesa      Name = "SOBREMESA"
	Combo          Name = "COMBO"
	Especial       Name = "ESPECIAL"
	Desconhecida   Name = "DESCONHECIDA"
)

var known = map[string]Name{
	string(Lanche):         Lanche,
	string(Acompanhamento): Acompanhamento,
	string(Bebida):         Bebida,
	string(Sobremesa):      Sobremesa,
	string(Combo):          Combo,
	string(Especial):       Especial,
	string(Desconhecida):   Desconhecida,
}

// All returns every known category in declaration order.
func All() []Name {
	return []Name{Lanche, Acompanhamento, Bebida, Sobremesa, Combo, Especial, Desconhecida}
}

// Parse maps s to a known category. Matching ignores case and surrounding
// whitespace; unknown names yield a NotFound error.
func Parse(s string) (Name, error) {
	n, ok := known[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", apperr.NotFound(apperr.KindCategory, s)
	}
	return n, nil
}

// Category is a stored category row.
type Category struct {
	ID   int64
	Name Name
}

// Repository resolves stored categories.
type Repository interface {
	GetByName(ctx context.Context, name Name) (*Category, error)
}
