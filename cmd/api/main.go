package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-checkout-flow/internal/aws"
	"github.com/imrishuroy/go-checkout-flow/internal/cart"
	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
	"github.com/imrishuroy/go-checkout-flow/internal/gateway"
	"github.com/imrishuroy/go-checkout-flow/internal/handlers"
	"github.com/imrishuroy/go-checkout-flow/internal/orders"
	"github.com/imrishuroy/go-checkout-flow/internal/session"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCheckoutRoutes(r, cfg)

	return r
}

func main() {
	runLocal := os.Getenv("RUN_LOCAL") == "true"
	sessionTable := os.Getenv("SESSION_TABLE")

	httpClient := &http.Client{Timeout: 10 * time.Second}

	var store checkout.StateStore
	var publisher *aws.Publisher
	if runLocal && sessionTable == "" {
		// no AWS needed for a purely local run
		store = session.NewMemory()
	} else {
		clients, err := aws.NewAWSClients(context.Background())
		if err != nil {
			log.Fatalf("failed to init aws clients: %v", err)
		}
		store = session.NewStore(clients.DynamoDB, sessionTable, 7*24*time.Hour)
		if queueURL := os.Getenv("CHECKOUT_QUEUE_URL"); queueURL != "" {
			publisher = aws.NewPublisher(clients.SQS, queueURL)
		}
	}

	cfg := handlers.HandlerConfig{
		Cart:      cart.NewClient(httpClient, os.Getenv("CART_API_URL")),
		Orders:    orders.NewClient(httpClient, os.Getenv("ORDERS_API_URL")),
		Gateway:   gateway.NewClient(httpClient, os.Getenv("PAYMENT_API_URL")),
		Store:     store,
		Publisher: publisher,
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if runLocal {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
