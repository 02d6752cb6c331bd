package models

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus indique si s est un statut de commande accepté par le backend.
func ValidOrderStatus(s string) bool {
	return s == OrderStatusPending || s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItemRequest est la seule chose envoyée au backend à la création d'une
// commande : le serveur recalcule prix et totaux, le client ne les envoie pas.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderItem est une ligne de commande telle que facturée par le backend.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Order est une commande appartenant au serveur ; le client l'observe telle
// quelle. TotalAmount et Subtotal font foi uniquement dans la réponse backend.
type Order struct {
	ID          string      `json:"id"`
	BuyerID     string      `json:"buyerId"`
	BuyerName   string      `json:"buyerName"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"` // "pending", "completed", "cancelled"
	CreatedAt   string      `json:"createdAt"`
}
