// Package devserver est un miroir en mémoire du backend REST consommé par le
// client : mêmes routes, mêmes formes de réponse, mêmes messages d'erreur.
// Il sert au développement local (cmd/devserver) et de serveur de référence
// pour les tests d'intégration du client.
package devserver

import (
	"log"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"qrstock_client/internal/models"
)

type Options struct {
	JWTSecret     string
	OwnerEmail    string
	OwnerPassword string
}

type userRecord struct {
	models.User
	passwordHash []byte
}

type Server struct {
	mu      sync.Mutex
	users   map[string]*userRecord // par id
	emails  map[string]string      // email → id
	items   map[string]*models.InventoryItem
	orders  map[string]*models.Order
	secret  []byte
	limiter *rateLimiter
}

// New construit le serveur et pré-ensemence le compte owner : l'inscription
// publique ne crée que des acheteurs.
func New(opts Options) *Server {
	s := &Server{
		users:   make(map[string]*userRecord),
		emails:  make(map[string]string),
		items:   make(map[string]*models.InventoryItem),
		orders:  make(map[string]*models.Order),
		secret:  []byte(opts.JWTSecret),
		limiter: newRateLimiter(publicLookupLimit),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("❌ Impossible de hacher le mot de passe owner :", err)
	}
	owner := &userRecord{
		User: models.User{
			ID:    uuid.NewString(),
			Name:  "Store Owner",
			Email: opts.OwnerEmail,
			Role:  models.RoleOwner,
		},
		passwordHash: hash,
	}
	s.users[owner.ID] = owner
	s.emails[owner.Email] = owner.ID
	return s
}

// Engine enregistre toutes les routes de l'API.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.POST("/auth/register", s.register)
	r.POST("/auth/login", s.login)

	// Lookup QR public : pas d'authentification, rate-limité par IP.
	r.GET("/items/qr/:token", s.rateLimit(), s.publicItemByQR)

	auth := r.Group("/", s.authRequired())
	{
		auth.GET("/items", s.listItems)
		auth.GET("/items/:id", s.getItem)
		auth.GET("/items/lookup/:code", s.itemByQR)
		auth.GET("/items/:id/qr-image", s.qrImage)
		auth.POST("/items", s.ownerRequired(), s.createItem)
		auth.PUT("/items/:id", s.ownerRequired(), s.updateItem)
		auth.DELETE("/items/:id", s.ownerRequired(), s.deleteItem)

		auth.POST("/orders", s.buyerRequired(), s.createOrder)
		auth.GET("/orders", s.listOrders)
		auth.GET("/orders/:id", s.getOrder)
		auth.PATCH("/orders/:id/status", s.ownerRequired(), s.updateOrderStatus)
	}

	return r
}
