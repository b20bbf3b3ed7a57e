package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/store-scheduler-api/internal/config"
	"github.com/arnavshah/store-scheduler-api/pkg/auth"
)

func main() {
	config.LoadEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <key name>")
		os.Exit(1)
	}

	name := os.Args[1]
	cfg := config.Load()
	if cfg.MasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	key := auth.GenerateHMACKey([]byte(cfg.MasterSecret), name)
	fmt.Printf("Generated sync key for %s:\n%s\n", name, key)
}
