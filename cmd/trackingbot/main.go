package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/PrincipeGhost/CorreosPremium/core/cmd"
)

func main() {
	// Local development convenience; production provides real env vars.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return loadConfig(path)
		},
		Bootstrap: newApp,
	})
	if err != nil {
		log.Fatal(err)
	}
}
