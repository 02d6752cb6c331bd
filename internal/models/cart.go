package models

// CartLine est une ligne du panier local. Invariant après toute mutation :
// 1 <= Quantity <= MaxQuantity. Une ligne à quantité nulle est supprimée,
// jamais persistée.
type CartLine struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	MaxQuantity int     `json:"maxQuantity"` // stock disponible au dernier ajout
	Category    string  `json:"category"`
}
