package checkout

import (
	"context"
	"errors"
	"sync"

	"qrstock_client/internal/cart"
	"qrstock_client/internal/models"
)

type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusSubmitting Status = "SUBMITTING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusFailed     Status = "FAILED"
)

func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

var (
	// ErrEmptyCart : un panier vide ne déclenche aucune requête.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrInFlight : une seule soumission en vol par panier.
	ErrInFlight = errors.New("checkout: submission already in flight")

	// ErrFinished : le flow est terminé, Reset avant une nouvelle commande.
	ErrFinished = errors.New("checkout: flow already finished, reset first")
)

// OrderPlacer est la part du gateway dont le flow a besoin.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, items []models.OrderItemRequest) (*models.Order, error)
}

// Flow orchestre la conversion du panier en une requête de commande unique.
// Machine à états : Idle → Submitting → {Confirmed | Failed}. Submitting
// n'est atteignable que depuis Idle avec un panier non vide, et refuse la
// ré-entrée tant qu'une soumission est en vol.
type Flow struct {
	mu     sync.Mutex
	status Status
	cart   *cart.Manager
	orders OrderPlacer
}

func New(c *cart.Manager, orders OrderPlacer) *Flow {
	return &Flow{status: StatusIdle, cart: c, orders: orders}
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Checkout envoie le snapshot courant du panier : uniquement des paires
// {productId, quantity}, le serveur recalcule les totaux qui font foi.
// Succès : panier vidé, commande retournée telle quelle, état Confirmed.
// Échec : panier intact, message serveur remonté, état Failed, pas de retry
// automatique.
func (f *Flow) Checkout(ctx context.Context) (*models.Order, error) {
	f.mu.Lock()
	switch f.status {
	case StatusSubmitting:
		f.mu.Unlock()
		return nil, ErrInFlight
	case StatusConfirmed, StatusFailed:
		f.mu.Unlock()
		return nil, ErrFinished
	}

	lines := f.cart.Lines()
	if len(lines) == 0 {
		// No-op : on reste Idle, aucune requête ne part.
		f.mu.Unlock()
		return nil, ErrEmptyCart
	}

	items := make([]models.OrderItemRequest, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItemRequest{ProductID: line.ID, Quantity: line.Quantity})
	}
	f.status = StatusSubmitting
	f.mu.Unlock()

	order, err := f.orders.CreateOrder(ctx, items)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status = StatusFailed
		return nil, err
	}

	if err := f.cart.Clear(); err != nil {
		// La commande est passée côté serveur : on la remonte quand même,
		// le snapshot local sera réécrit à la prochaine mutation.
		f.status = StatusConfirmed
		return order, nil
	}
	f.status = StatusConfirmed
	return order, nil
}

// Reset ramène un flow terminé à Idle pour l'achat suivant. Sans effet sur un
// flow en vol.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != StatusSubmitting {
		f.status = StatusIdle
	}
}
