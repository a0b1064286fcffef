package main

import (
	"log"

	"github.com/drewsephski/Dream/app"
	"github.com/drewsephski/Dream/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.MustInitDB()
	app.InitStripe()

	router, err := app.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	if err := router.Run("0.0.0.0:" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
