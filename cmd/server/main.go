package main

import (
	"context"
	"log"

	"github.com/akarpov87/securevault/internal/server"
	"github.com/akarpov87/securevault/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app.Run(context.Background())
}
