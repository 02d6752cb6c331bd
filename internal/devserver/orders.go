package devserver

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"qrstock_client/internal/models"
)

// createOrder valide le stock, le déduit, puis enregistre la commande avec
// les totaux recalculés côté serveur. Le client n'envoie que des paires
// {productId, quantity} ; prix et noms viennent d'ici.
func (s *Server) createOrder(c *gin.Context) {
	var input struct {
		Items []models.OrderItemRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return
	}
	if len(input.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order must contain at least one item"})
		return
	}

	buyer := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Première passe : tout valider avant de toucher au stock, pour qu'un
	// échec ne laisse aucune déduction partielle.
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	total := 0.0
	for _, req := range input.Items {
		if req.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Each item must have a productId"})
			return
		}
		if req.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be greater than 0"})
			return
		}
		product, ok := s.items[req.ProductID]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product not found: " + req.ProductID})
			return
		}
		if product.Quantity < req.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(
				"Insufficient stock for %s. Available: %d, Requested: %d",
				product.Name, product.Quantity, req.Quantity)})
			return
		}

		subtotal := product.Price * float64(req.Quantity)
		total += subtotal
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
			Subtotal:  subtotal,
		})
	}

	// Deuxième passe : déduction du stock.
	for _, item := range orderItems {
		product := s.items[item.ProductID]
		product.Quantity -= item.Quantity
		product.UpdatedAt = nowISO()
	}

	order := &models.Order{
		ID:          uuid.NewString(),
		BuyerID:     buyer.ID,
		BuyerName:   buyer.Name,
		Items:       orderItems,
		TotalAmount: total,
		Status:      models.OrderStatusCompleted,
		CreatedAt:   nowISO(),
	}
	s.orders[order.ID] = order

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// listOrders : un acheteur voit ses commandes, l'owner les voit toutes.
func (s *Server) listOrders(c *gin.Context) {
	user := currentUser(c)

	s.mu.Lock()
	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if user.Role == models.RoleOwner || order.BuyerID == user.ID {
			orders = append(orders, *order)
		}
	}
	s.mu.Unlock()

	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt != orders[j].CreatedAt {
			return orders[i].CreatedAt > orders[j].CreatedAt
		}
		return orders[i].ID < orders[j].ID
	})
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) getOrder(c *gin.Context) {
	user := currentUser(c)

	s.mu.Lock()
	order, ok := s.orders[c.Param("id")]
	s.mu.Unlock()

	// Un acheteur ne peut pas voir la commande d'un autre : même réponse
	// qu'une commande inexistante.
	if !ok || (user.Role != models.RoleOwner && order.BuyerID != user.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": *order})
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}
	if !models.ValidOrderStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Must be: pending, completed, or cancelled"})
		return
	}

	s.mu.Lock()
	order, ok := s.orders[c.Param("id")]
	if ok {
		order.Status = input.Status
	}
	var updated models.Order
	if ok {
		updated = *order
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"order":   updated,
	})
}
