package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// APIURL est l'adresse du backend REST consommé par le client.
func APIURL() string {
	return getenv("API_URL", "http://localhost:5000")
}

// StateDir est le répertoire d'état local du client (jeton, identité, panier).
func StateDir() string {
	if v := os.Getenv("QRSTOCK_STATE_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".qrstock"
	}
	return filepath.Join(home, ".qrstock")
}

// StoreBackend sélectionne l'implémentation du store local : "file" (défaut) ou "redis".
func StoreBackend() string {
	return getenv("QRSTOCK_STORE", "file")
}

func RedisAddr() string {
	return getenv("REDIS_ADDR", "localhost:6379")
}

func RedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

// ---- côté devserver ----

func Port() string {
	return getenv("PORT", "5000")
}

func JWTSecret() string {
	return getenv("JWT_SECRET", "dev-secret-change-me")
}

func OwnerEmail() string {
	return getenv("OWNER_EMAIL", "owner@example.com")
}

func OwnerPassword() string {
	return getenv("OWNER_PASSWORD", "ownerpass123")
}
