package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"
	"github.com/sokosnap/internal/service"
)

// seedDocuments 演示商品，刻意混用新旧字段名与金额格式
func seedDocuments(now time.Time) []models.ProductDocument {
	slug := func(s string) *string { return &s }
	return []models.ProductDocument{
		{
			ID:       "01JSEEDSHUKA0000000000000A",
			Status:   constants.ProductStatusActive,
			Slug:     slug("maasai-shuka"),
			SellerID: "seller-nairobi-crafts",
			Data: models.JSON{
				"name":         "Maasai Shuka",
				"description":  "Hand-woven red shuka, 1.5m x 2m. Perfect for picnics and cold Nairobi evenings.",
				"price":        1500,
				"currency":     "KES",
				"mediaUrl":     "https://images.sokosnap.app/demo/shuka.jpg",
				"sellerName":   "Nairobi Crafts",
				"sellerHandle": "@nairobicrafts",
				"likes":        42,
				"createdAt":    now.Add(-2 * time.Hour).Format(time.RFC3339),
			},
		},
		{
			ID:       "01JSEEDKIONDO000000000000B",
			Status:   constants.ProductStatusActive,
			Slug:     slug("kiondo-basket"),
			SellerID: "seller-nairobi-crafts",
			Data: models.JSON{
				"name":       "Kiondo Basket",
				"price":      "KES 2,400",
				"img":        "https://images.sokosnap.app/demo/kiondo.mp4",
				"sellerName": "Nairobi Crafts",
				"sellerImg":  "https://images.sokosnap.app/demo/avatar.png",
				"likes":      "17",
			},
		},
		{
			ID:       "01JSEEDSUKUMA000000000000C",
			Status:   constants.ProductStatusActive,
			SellerID: "seller-mama-mboga",
			Data: models.JSON{
				"name":        "Fresh Sukuma Wiki",
				"description": "Harvested this morning in Limuru.",
				"price":       "120.00",
				"mediaUrl":    "https://images.sokosnap.app/demo/sukuma.jpg",
				"sellerName":  "Mama Mboga",
				"createdAt":   now.Add(-30 * time.Minute).UnixMilli(),
			},
		},
		{
			ID:       "01JSEEDARCHIVED0000000000D",
			Status:   constants.ProductStatusArchived,
			SellerID: "seller-mama-mboga",
			Data: models.JSON{
				"name":       "Last Season Mangoes",
				"price":      300,
				"mediaUrl":   "https://images.sokosnap.app/demo/mango.jpg",
				"sellerName": "Mama Mboga",
			},
		},
	}
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewProductRepository(models.DB)
	for _, doc := range seedDocuments(time.Now()) {
		existing, err := repo.FindByID(ctx, doc.ID)
		if err != nil {
			stdLog.Printf("Failed to check product %s: %v", doc.ID, err)
			continue
		}
		if existing != nil {
			stdLog.Printf("Product already exists: %s", doc.ID)
			continue
		}
		doc := doc
		if err := repo.Create(ctx, &doc); err != nil {
			stdLog.Printf("Failed to create product %s: %v", doc.ID, err)
			continue
		}
		normalized := service.NormalizeProduct(doc)
		stdLog.Printf("Created product: %s (%s %s)", normalized.Name, normalized.Currency, normalized.Price.String())
	}

	// 打印演示令牌
	authService := service.NewAuthService(cfg.JWT)
	identities := []service.Identity{
		{UserID: "buyer-wanjiku", Name: "Wanjiku", Phone: "0712345678", Role: constants.RoleBuyer},
		{UserID: "seller-nairobi-crafts", Name: "Nairobi Crafts", Role: constants.RoleSeller},
		{UserID: "rider-otieno", Name: "Otieno", Role: constants.RoleRider},
		{UserID: "support-desk", Name: "Support", Role: constants.RoleSupport},
	}
	for _, identity := range identities {
		token, expiresAt, err := authService.GenerateJWT(identity)
		if err != nil {
			stdLog.Printf("Failed to sign token for %s: %v", identity.UserID, err)
			continue
		}
		fmt.Printf("%-8s %-22s expires %s\n  %s\n", identity.Role, identity.UserID, expiresAt.Format(time.RFC3339), token)
	}

	stdLog.Println("Seed completed")
}
