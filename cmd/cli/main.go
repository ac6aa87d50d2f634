package main

import (
	"context"
	"log"

	"github.com/croplabs/picstore/internal/cli"
)

func main() {

	ctx := context.Background()
	cfg := cli.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
