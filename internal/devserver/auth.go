package devserver

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"qrstock_client/internal/models"
)

const tokenTTL = 24 * time.Hour

// register crée un compte acheteur. L'inscription owner est interdite : le
// compte owner est pré-ensemencé.
func (s *Server) register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	for field, value := range map[string]string{"name": input.Name, "email": input.Email, "password": input.Password} {
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": field + " is required"})
			return
		}
	}

	if strings.ToLower(input.Role) == models.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Owner registration is not allowed"})
		return
	}

	name := strings.TrimSpace(input.Name)
	if len(name) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name must be at least 2 characters"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	if len(input.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.mu.Lock()
	if _, taken := s.emails[email]; taken {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	user := &userRecord{
		User: models.User{
			ID:    uuid.NewString(),
			Name:  name,
			Email: email,
			Role:  models.RoleBuyer, // rôle forcé, quoi qu'envoie le client
		},
		passwordHash: hash,
	}
	s.users[user.ID] = user
	s.emails[email] = user.ID
	s.mu.Unlock()

	token, err := s.generateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.User,
		"token":   token,
	})
}

func (s *Server) login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	s.mu.Lock()
	id, ok := s.emails[email]
	var user *userRecord
	if ok {
		user = s.users[id]
	}
	s.mu.Unlock()

	if user == nil || bcrypt.CompareHashAndPassword(user.passwordHash, []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user.User,
		"token":   token,
	})
}

func (s *Server) generateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// authRequired vérifie le jeton bearer et pose l'utilisateur dans le contexte.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if authHeader == "" || len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token is missing"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}
		userID, _ := claims["user_id"].(string)

		s.mu.Lock()
		user, exists := s.users[userID]
		s.mu.Unlock()
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		c.Set("user", user.User)
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	user, _ := c.Get("user")
	return user.(models.User)
}

func (s *Server) ownerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Role != models.RoleOwner {
			c.JSON(http.StatusForbidden, gin.H{"error": "Owner access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) buyerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Role != models.RoleBuyer {
			c.JSON(http.StatusForbidden, gin.H{"error": "Buyer access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
