package cart

import (
	"encoding/json"
	"sync"

	"qrstock_client/internal/models"
	"qrstock_client/internal/store"
)

// Product est la tranche de catalogue dont le panier a besoin pour créer une
// ligne. MaxQuantity est le stock disponible au moment de l'ajout.
type Product struct {
	ID          string
	Name        string
	Category    string
	Price       float64
	MaxQuantity int
}

func ProductFromItem(it models.InventoryItem) Product {
	return Product{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Price:       it.Price,
		MaxQuantity: it.Quantity,
	}
}

func ProductFromPublic(info models.PublicItemInfo) Product {
	return Product{
		ID:          info.ID,
		Name:        info.Name,
		Category:    info.Category,
		Price:       info.Price,
		MaxQuantity: info.Quantity,
	}
}

// Manager détient la liste des lignes du panier en mémoire et la synchronise
// sur le store à chaque mutation : le snapshot entier est réécrit de façon
// synchrone avant que la mutation ne rende la main. Invariant maintenu :
// 1 <= quantity <= maxQuantity sur chaque ligne.
type Manager struct {
	mu    sync.Mutex
	st    store.Store
	lines []models.CartLine
}

// New charge le snapshot précédent depuis le store. Un snapshot absent ou
// corrompu donne un panier vide, jamais une erreur.
func New(st store.Store) *Manager {
	m := &Manager{st: st}
	raw, err := st.Get(store.KeyCart)
	if err != nil {
		return m
	}
	var lines []models.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return m
	}
	m.lines = lines
	return m
}

// persist réécrit le snapshot entier. Appelé sous verrou.
func (m *Manager) persist() error {
	snapshot := m.lines
	if snapshot == nil {
		snapshot = []models.CartLine{}
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return m.st.Set(store.KeyCart, raw)
}

// AddItem ajoute qty unités du produit. Si la ligne existe déjà, la quantité
// est fusionnée et son plafond rafraîchi (le stock a pu changer depuis le
// dernier ajout). Un dépassement de stock est borné silencieusement, jamais
// une erreur. qty <= 0 vaut 1.
func (m *Manager) AddItem(p Product, qty int) error {
	if qty <= 0 {
		qty = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.lines {
		if m.lines[i].ID == p.ID {
			m.lines[i].Quantity = clamp(m.lines[i].Quantity+qty, p.MaxQuantity)
			m.lines[i].MaxQuantity = p.MaxQuantity
			if m.lines[i].Quantity <= 0 {
				// Stock tombé à zéro : la ligne ne survit pas.
				m.lines = append(m.lines[:i], m.lines[i+1:]...)
			}
			return m.persist()
		}
	}

	quantity := clamp(qty, p.MaxQuantity)
	if quantity <= 0 {
		return m.persist()
	}
	m.lines = append(m.lines, models.CartLine{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    quantity,
		MaxQuantity: p.MaxQuantity,
		Category:    p.Category,
	})
	return m.persist()
}

// UpdateQuantity fixe la quantité d'une ligne. <= 0 supprime la ligne ; sinon
// la valeur est bornée à [1, maxQuantity] sans erreur.
func (m *Manager) UpdateQuantity(id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if quantity <= 0 {
		m.removeLocked(id)
		return m.persist()
	}
	for i := range m.lines {
		if m.lines[i].ID == id {
			m.lines[i].Quantity = clamp(quantity, m.lines[i].MaxQuantity)
			break
		}
	}
	return m.persist()
}

func (m *Manager) RemoveItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
	return m.persist()
}

// Clear vide le panier : après une commande confirmée, ou sur action
// explicite de l'utilisateur.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	return m.persist()
}

func (m *Manager) removeLocked(id string) {
	for i := range m.lines {
		if m.lines[i].ID == id {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return
		}
	}
}

// ItemQuantity retourne la quantité au panier pour un produit, 0 sinon.
func (m *Manager) ItemQuantity(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines {
		if m.lines[i].ID == id {
			return m.lines[i].Quantity
		}
	}
	return 0
}

// Lines retourne une copie des lignes dans l'ordre d'insertion.
func (m *Manager) Lines() []models.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CartLine, len(m.lines))
	copy(out, m.lines)
	return out
}

// ItemCount est recalculé à chaque lecture, aucun cache à invalider.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, line := range m.lines {
		count += line.Quantity
	}
	return count
}

func (m *Manager) TotalAmount() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, line := range m.lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines) == 0
}

func clamp(quantity, max int) int {
	if quantity > max {
		return max
	}
	return quantity
}
