package service

import (
	"lumina-server/models"

	"gorm.io/gorm"
)

// Shared service singletons, wired once in main after config/db/minio init.
var (
	DefaultLedger   *Ledger
	DefaultGateway  Gateway
	DefaultPipeline *Pipeline
	DefaultEnricher *Enricher
)

func InitServices(db *gorm.DB) {
	ledger, err := NewLedger(NewGormWalletStore(db, models.DefaultWalletID))
	if err != nil {
		Log.Fatalf("ledger init failed: %v", err)
	}
	gateway := NewHTTPGateway()
	media := NewMinioMediaStore()

	DefaultLedger = ledger
	DefaultGateway = gateway
	DefaultPipeline = &Pipeline{
		Gateway: gateway,
		Ledger:  ledger,
		Store:   NewGormProjectStore(db),
		Assets:  NewGormAssetStore(db),
		Media:   media,
	}
	DefaultEnricher = &Enricher{
		Gateway: gateway,
		Ledger:  ledger,
		Pages:   NewGormPageStore(db),
		Media:   media,
	}
}
