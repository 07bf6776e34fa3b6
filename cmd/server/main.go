package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/teamforge/backend/internal/config"
	"github.com/teamforge/backend/internal/database"
	"github.com/teamforge/backend/internal/handlers"
	"github.com/teamforge/backend/internal/middleware"
	"github.com/teamforge/backend/internal/services"
	"github.com/teamforge/backend/internal/storage"
	"github.com/teamforge/backend/pkg/logger"
	"github.com/teamforge/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	locks := services.NewOwnerLocks()
	accessService := services.NewAccessService(db, locks)
	catalogService := services.NewCatalogService(db, locks)
	folderService := services.NewFolderService(db, locks)
	placementService := services.NewPlacementService(db, locks)
	accountingService := services.NewAccountingService(db)
	auditService := services.NewAuditService(db)

	filesHandler := handlers.NewFilesHandler(catalogService, placementService, accessService, storageClient, auditService)
	foldersHandler := handlers.NewFoldersHandler(folderService, placementService, storageClient, auditService)
	sharesHandler := handlers.NewSharesHandler(accessService, auditService)
	usageHandler := handlers.NewUsageHandler(accountingService)
	usersHandler := handlers.NewUsersHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	api.Get("/users/search", authMiddleware.RequireAuth, usersHandler.Search)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/upload", filesHandler.Upload)
	fileRoutes.Get("/", filesHandler.ListRoot)
	fileRoutes.Get("/:id/download", filesHandler.Download)
	fileRoutes.Get("/:id/access", filesHandler.EffectiveAccess)
	fileRoutes.Post("/:id/share", sharesHandler.ShareFile)
	fileRoutes.Delete("/:id/share/:userId", sharesHandler.RevokeShare)
	fileRoutes.Get("/:id/shares", sharesHandler.ListFileShares)
	fileRoutes.Put("/:id/public", sharesHandler.SetPublic)
	fileRoutes.Patch("/:id/move", filesHandler.Move)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Put("/:id", filesHandler.Update)
	fileRoutes.Delete("/:id", filesHandler.Delete)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/", foldersHandler.Create)
	folderRoutes.Get("/", foldersHandler.ListRoot)
	folderRoutes.Get("/:id/children", foldersHandler.ListChildren)
	folderRoutes.Get("/:id/path", foldersHandler.Path)
	folderRoutes.Patch("/:id/move", foldersHandler.Move)
	folderRoutes.Put("/:id", foldersHandler.Rename)
	folderRoutes.Delete("/:id", foldersHandler.Delete)

	usageRoutes := api.Group("/usage", authMiddleware.RequireAuth)
	usageRoutes.Get("/", usageHandler.Total)
	usageRoutes.Get("/categories", usageHandler.Categories)
	usageRoutes.Get("/folders/:id", usageHandler.Folder)

	api.Get("/shared", authMiddleware.RequireAuth, filesHandler.ListSharedWithMe)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
