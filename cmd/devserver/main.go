package main

import (
	"log"

	"qrstock_client/internal/config"
	"qrstock_client/internal/devserver"
)

func main() {
	config.Load()

	srv := devserver.New(devserver.Options{
		JWTSecret:     config.JWTSecret(),
		OwnerEmail:    config.OwnerEmail(),
		OwnerPassword: config.OwnerPassword(),
	})
	log.Println("✅ Compte owner ensemencé :", config.OwnerEmail())

	r := srv.Engine()

	port := config.Port()
	log.Println("🚀 Serveur de dev lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Serveur arrêté :", err)
	}
}
