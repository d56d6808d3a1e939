package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	v1 "github.com/nurpratapkarki/realEstateWeb/v1"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	rootCmd := newRootCmd(openDatabase)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase connects with the same environment as the API server. The
// migrate command runs migrations itself, so RUN_MIGRATION is ignored here.
func openDatabase() (*gorm.DB, error) {
	os.Unsetenv("RUN_MIGRATION")
	return v1.ConnectGormDB(v1.NewDatabaseConfig())
}
