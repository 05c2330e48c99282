package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/event"
	"storefront/internal/handler"
	"storefront/internal/infra/commerce"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/token"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/store"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env は無くてもよい（本番は環境変数）
	_ = godotenv.Load(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.GoEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//保存先
	records, closeRecords, err := openRecords(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer closeRecords()

	//通知
	bus := event.NewBus(event.LogHook(log))
	bus.OnHookError(func(ev event.Event, err error) {
		log.WithFields(logrus.Fields{"topic": ev.Topic, "error": err}).Warn("event hook failed")
	})

	//ショッパーごとのストア
	shoppers := store.NewRegistry(records, bus, log,
		store.WithRunner(store.GoRunner),
		store.WithTokenInspector(token.NewExpiryInspector(30*time.Second)),
	)

	//使われていないショッパーをメモリから外す
	go shoppers.RunEviction(ctx, cfg.ShopperSweepInterval, cfg.ShopperIdleTTL)

	//コマースAPI
	api := commerce.NewClient(cfg.CommerceAPIURL, cfg.CommerceChannel, cfg.CommerceTimeout, log)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(shoppers, api, api, store.GoRunner, log, usecase.CartLimits{
		MaxLineQuantity: cfg.CartMaxLineQuantity,
		MaxUnitPrice:    cfg.CartMaxUnitPrice,
	})
	authUC := usecase.NewAuthUsecase(shoppers, validator.NewAuthValidator(), api, api, log)
	checkoutUC := usecase.NewCheckoutUsecase(shoppers, api, store.GoRunner, log)
	productUC := usecase.NewProductUsecase(api, log)

	//Handler生成
	h := server.Handlers{
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartUC),
		Auth:     handler.NewAuthHandler(authUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Events:   handler.NewEventsHandler(bus, 0),
		Admin:    handler.NewAdminHandler(shoppers, bus),
	}

	//Server起動
	e := server.New(cfg, log, h, shoppers)
	if err := server.Start(ctx, e, cfg.Addr(), log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func openRecords(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (repo.RecordRepository, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore: %w", err)
		}
		log.WithField("project", cfg.FirestoreProjectID).Info("storage: firestore")
		return infraRepo.NewRecordFirestoreRepository(client), func() { _ = client.Close() }, nil

	case config.StorageMemory:
		log.Warn("storage: memory (state is lost on restart)")
		return infraRepo.NewRecordMemoryRepository(), func() {}, nil

	default:
		gormDB, err := db.Connect(cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(gormDB); err != nil {
			return nil, nil, err
		}
		log.Info("storage: postgres")

		closeFn := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return infraRepo.NewRecordGormRepository(gormDB), closeFn, nil
	}
}
