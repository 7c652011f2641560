package main

import (
	"log"
	"net/http"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/contacts"
	"github.com/angelaneason/routie-roo/internal/controllers"
	"github.com/angelaneason/routie-roo/internal/directions"
	"github.com/angelaneason/routie-roo/internal/logger"
	"github.com/angelaneason/routie-roo/internal/middleware"
	"github.com/angelaneason/routie-roo/internal/routes"
)

func main() {
	// Structured logging to file
	logger.Setup()

	// Environment config, then database
	config.Load()
	config.InitDB()

	// Directions client for the optimizer and recalculation paths
	client, err := directions.NewClient(config.Cfg.DirectionsAPIKey, config.Cfg.DirectionsBaseURL)
	if err != nil {
		log.Fatalf("directions client: %v", err)
	}
	controllers.Init(client, contacts.NewStaticDirectory(nil))

	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := config.Cfg.ServerHost + ":" + config.Cfg.ServerPort
	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
