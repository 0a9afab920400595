package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/freshmandi/grocery/internal/adapter/handler"
	"github.com/freshmandi/grocery/internal/adapter/razorpay"
	"github.com/freshmandi/grocery/internal/adapter/storage"
	"github.com/freshmandi/grocery/internal/auth"
	"github.com/freshmandi/grocery/internal/core/service"
)

const orderTimeout = 10 * time.Second

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpAddr := envOr("HTTP_ADDR", ":8080")
	mysqlDSN := envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/grocery?parseTime=true")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	jwtSecret := envOr("JWT_SECRET", "dev-secret")
	razorpayKeyID := os.Getenv("RAZORPAY_KEY_ID")
	razorpayKeySecret := os.Getenv("RAZORPAY_KEY_SECRET")

	// Initialize MySQL
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Adapters
	catalog := storage.NewMySQLCatalog(db)
	cartStore := storage.NewMySQLCartStore(db)
	orderStore := storage.NewMySQLOrderStore(db)
	addressStore := storage.NewMySQLAddressStore(db)
	cache := storage.NewRedisAdapter(rdb)
	gateway := razorpay.NewClient(razorpayKeyID, razorpayKeySecret)

	// Services
	cartService := service.NewCartService(cartStore, catalog)
	checkoutService := service.NewCheckoutService(cartStore, catalog, addressStore)
	orderService := service.NewOrderService(orderStore, cartStore, cache, gateway, orderTimeout)

	// Handlers
	cartHandler := handler.NewCartHandler(cartService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	orderHandler := handler.NewOrderHandler(orderService)
	verifier := auth.NewVerifier(jwtSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HealthCheck)

	mux.HandleFunc("GET /api/cart/{userId}", cartHandler.GetCart)
	mux.HandleFunc("POST /api/cart/add", cartHandler.AddItem)
	mux.HandleFunc("PUT /api/cart/update-quantity", cartHandler.UpdateQuantity)
	mux.HandleFunc("DELETE /api/cart/item", cartHandler.RemoveItem)

	mux.HandleFunc("GET /api/checkout/{userId}", checkoutHandler.Summary)
	mux.HandleFunc("POST /api/checkout/validate", checkoutHandler.Validate)
	mux.HandleFunc("POST /api/checkout/delivery-fee", checkoutHandler.Quote)

	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/user/{userId}", orderHandler.ListByUser)
	mux.HandleFunc("GET /api/orders/{orderId}", orderHandler.Get)
	mux.HandleFunc("PUT /api/orders/{orderId}/status", orderHandler.UpdateStatus)
	mux.HandleFunc("POST /api/orders/{orderId}/verify-delivery", orderHandler.VerifyDelivery)

	mux.HandleFunc("POST /api/payment/order", orderHandler.CreateGatewayOrder)
	mux.HandleFunc("POST /api/payment/verify", orderHandler.VerifyPayment)

	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: handler.WithAuth(verifier, mux),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}
