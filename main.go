package main

import (
	"lumina-server/config"
	"lumina-server/models"
	"lumina-server/routers"
	"lumina-server/service"

	"github.com/joho/godotenv"
)

func main() {
	// .env is local-dev convenience only
	_ = godotenv.Load()

	config.InitConfig()
	service.InitLogger()
	service.Log.Infof("server starting on port %s", config.AppConfig.Server.Port)

	models.InitDB()
	service.Log.Info("database initialized")

	service.InitQueue()
	service.InitMinIO()
	service.InitServices(models.GormDB)

	processor := service.NewProcessor(models.GormDB, service.DefaultPipeline, service.DefaultEnricher)
	processor.StartProcessor(5)

	r := routers.InitRouter()
	if err := r.Run(config.AppConfig.Server.Port); err != nil {
		service.Log.Fatalf("server exited: %v", err)
	}
}
