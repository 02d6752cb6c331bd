package devserver

import (
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"qrstock_client/internal/models"
)

// En dessous de ce stock, l'article est signalé lowStock.
const lowStockThreshold = 10

// newQRToken fabrique le token QR unique d'un article : "INV-" suivi de
// 12 hexadécimaux majuscules.
func newQRToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INV-" + strings.ToUpper(raw[:12])
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// serialize pose les champs dérivés avant envoi.
func serialize(item models.InventoryItem) models.InventoryItem {
	item.LowStock = item.Quantity < lowStockThreshold
	return item
}

// serializePublic ne garde que les champs non sensibles du lookup public.
func serializePublic(item models.InventoryItem) models.PublicItemInfo {
	return models.PublicItemInfo{
		ID:       item.ID,
		Name:     item.Name,
		Category: item.Category,
		Price:    item.Price,
		Quantity: item.Quantity,
		QRCode:   item.QRCode,
		InStock:  item.Quantity > 0,
	}
}

func (s *Server) listItems(c *gin.Context) {
	s.mu.Lock()
	items := make([]models.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, serialize(*item))
	}
	s.mu.Unlock()

	// Plus récent d'abord, comme le vrai backend. L'horodatage est à la
	// seconde : l'id départage pour un ordre stable.
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) getItem(c *gin.Context) {
	s.mu.Lock()
	item, ok := s.items[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": serialize(*item)})
}

// itemByQR est le lookup authentifié : détails complets de l'article.
func (s *Server) itemByQR(c *gin.Context) {
	code := c.Param("code")

	s.mu.Lock()
	var found *models.InventoryItem
	for _, item := range s.items {
		if item.QRCode == code {
			found = item
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": serialize(*found)})
}

// publicItemByQR est le lookup public rate-limité : champs réduits, réponse
// non enveloppée.
func (s *Server) publicItemByQR(c *gin.Context) {
	token := c.Param("token")

	s.mu.Lock()
	var found *models.InventoryItem
	for _, item := range s.items {
		if item.QRCode == token {
			found = item
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, serializePublic(*found))
}

func (s *Server) createItem(c *gin.Context) {
	var input struct {
		Name     *string  `json:"name"`
		Category *string  `json:"category"`
		Quantity *int     `json:"quantity"`
		Price    *float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	for field, missing := range map[string]bool{
		"name":     input.Name == nil,
		"category": input.Category == nil,
		"quantity": input.Quantity == nil,
		"price":    input.Price == nil,
	} {
		if missing {
			c.JSON(http.StatusBadRequest, gin.H{"error": field + " is required"})
			return
		}
	}

	name := strings.TrimSpace(*input.Name)
	category := strings.TrimSpace(*input.Category)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category cannot be empty"})
		return
	}
	if *input.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity cannot be negative"})
		return
	}
	if *input.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}

	now := nowISO()
	item := &models.InventoryItem{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Quantity:  *input.Quantity,
		Price:     *input.Price,
		QRCode:    newQRToken(),
		CreatedBy: currentUser(c).ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item created successfully",
		"item":    serialize(*item),
	})
}

func (s *Server) updateItem(c *gin.Context) {
	var input struct {
		Name     *string  `json:"name"`
		Category *string  `json:"category"`
		Quantity *int     `json:"quantity"`
		Price    *float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	item, ok := s.items[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	if input.Name == nil && input.Category == nil && input.Quantity == nil && input.Price == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	if input.Category != nil && strings.TrimSpace(*input.Category) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category cannot be empty"})
		return
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity cannot be negative"})
		return
	}
	if input.Price != nil && *input.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}

	s.mu.Lock()
	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		item.Category = strings.TrimSpace(*input.Category)
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	item.UpdatedAt = nowISO()
	updated := *item
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message": "Item updated successfully",
		"item":    serialize(updated),
	})
}

func (s *Server) deleteItem(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// qrImage génère le PNG du token QR et le renvoie en data-URI base64.
func (s *Server) qrImage(c *gin.Context) {
	s.mu.Lock()
	item, ok := s.items[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	png, err := qrcode.Encode(item.QRCode, qrcode.Low, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qrCode":  item.QRCode,
		"qrImage": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}
