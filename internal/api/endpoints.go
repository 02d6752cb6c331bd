package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"qrstock_client/internal/models"
)

// ---- Auth ----

type authResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
	Token   string      `json:"token"`
}

// Register crée un compte acheteur. Le rôle est forcé à "buyer" côté backend.
func (g *Gateway) Register(ctx context.Context, name, email, password string) (*models.Session, error) {
	var resp authResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &models.Session{User: resp.User, Token: resp.Token}, nil
}

func (g *Gateway) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &models.Session{User: resp.User, Token: resp.Token}, nil
}

// ---- Inventaire ----

// ItemInput est le corps de création d'un article (owner uniquement).
type ItemInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ItemUpdate est une mise à jour partielle : seuls les champs non-nil partent.
type ItemUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Category *string  `json:"category,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

func (g *Gateway) Items(ctx context.Context) ([]models.InventoryItem, error) {
	var resp struct {
		Items []models.InventoryItem `json:"items"`
	}
	if err := g.do(ctx, http.MethodGet, "/items", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (g *Gateway) Item(ctx context.Context, id string) (*models.InventoryItem, error) {
	var resp struct {
		Item models.InventoryItem `json:"item"`
	}
	if err := g.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// ItemByQR est la variante authentifiée du lookup QR : détails complets.
func (g *Gateway) ItemByQR(ctx context.Context, qrCode string) (*models.InventoryItem, error) {
	var resp struct {
		Item models.InventoryItem `json:"item"`
	}
	if err := g.do(ctx, http.MethodGet, "/items/lookup/"+url.PathEscape(qrCode), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (g *Gateway) CreateItem(ctx context.Context, input ItemInput) (*models.InventoryItem, error) {
	var resp struct {
		Item models.InventoryItem `json:"item"`
	}
	if err := g.do(ctx, http.MethodPost, "/items", input, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (g *Gateway) UpdateItem(ctx context.Context, id string, update ItemUpdate) (*models.InventoryItem, error) {
	var resp struct {
		Item models.InventoryItem `json:"item"`
	}
	if err := g.do(ctx, http.MethodPut, "/items/"+url.PathEscape(id), update, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (g *Gateway) DeleteItem(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil, nil)
}

func (g *Gateway) QRImage(ctx context.Context, id string) (*models.QRImage, error) {
	var resp models.QRImage
	if err := g.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id)+"/qr-image", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PublicItemByQRToken interroge le lookup QR public. Volontairement hors du
// chemin do() : pas de jeton attaché, pas de purge de session sur 401, et un
// 429 remonte ErrRateLimited.
func (g *Gateway) PublicItemByQRToken(ctx context.Context, qrToken string) (*models.PublicItemInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/items/qr/"+url.PathEscape(qrToken), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode, Message: serverMessage(data, "Item not found")}
	}

	var info models.PublicItemInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ---- Commandes ----

func (g *Gateway) CreateOrder(ctx context.Context, items []models.OrderItemRequest) (*models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	body := map[string][]models.OrderItemRequest{"items": items}
	if err := g.do(ctx, http.MethodPost, "/orders", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (g *Gateway) Orders(ctx context.Context) ([]models.Order, error) {
	var resp struct {
		Orders []models.Order `json:"orders"`
	}
	if err := g.do(ctx, http.MethodGet, "/orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (g *Gateway) Order(ctx context.Context, id string) (*models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	if err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (g *Gateway) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	body := map[string]string{"status": status}
	if err := g.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}
