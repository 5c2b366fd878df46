package main

import (
	"context"
	"log"
	"os"

	"github.com/jortega/fuelwatch/internal/buildinfo"
	"github.com/jortega/fuelwatch/internal/cli"
	"github.com/jortega/fuelwatch/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
