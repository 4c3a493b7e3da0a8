package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/absensi-app/attendance-backend-go/internal/config"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/database"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	if err := database.Migrate(cfg.DatabaseURL(), *direction); err != nil {
		fmt.Println("Migration failed:", err)
		os.Exit(1)
	}

	fmt.Println("Migrations applied:", *direction)
}
