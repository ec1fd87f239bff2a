package main

import (
	"context"
	"log"

	"github.com/vallamarket/cartsync/internal/cartcli"
	"github.com/vallamarket/cartsync/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cartcli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
