package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/DRSN-tech/storefront/internal/app"
	config "github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/joho/godotenv"
)

//	@title						Storefront API
//	@version					1.0
//	@description				Каталог, оформление заказов и операторские маршруты магазина.
//	@host						localhost:8080
//	@BasePath					/
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						X-Admin-Token
func main() {
	// .env читается до создания логгера: LOG_LEVEL может лежать в нём
	envErr := godotenv.Load()
	log := logger.NewSlogLogger()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Errorf(envErr, "failed to read .env")
		os.Exit(1)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
