package models

// InventoryItem est un article d'inventaire tel que retourné par le backend.
// Les champs calculés (lowStock) ne sont jamais recalculés côté client.
type InventoryItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	QRCode    string  `json:"qrCode"`
	CreatedBy string  `json:"createdBy"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	LowStock  bool    `json:"lowStock"`
}

// PublicItemInfo est la forme réduite servie par le lookup QR public
// (pas d'authentification, champs non sensibles uniquement).
type PublicItemInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	QRCode   string  `json:"qrCode"`
	InStock  bool    `json:"inStock"`
}

// QRImage est la réponse de GET /items/:id/qr-image : le token QR et
// l'image PNG encodée en data-URI base64.
type QRImage struct {
	QRCode  string `json:"qrCode"`
	QRImage string `json:"qrImage"`
}
