package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nbelova/order-matching/internal/api/dto"
	"github.com/nbelova/order-matching/internal/core"
	"github.com/nbelova/order-matching/internal/domain"
	"github.com/nbelova/order-matching/internal/middleware"
)

type HTTPServer struct {
	Eng         *core.Engine
	logger      *zap.Logger
	submittedID sync.Map // for deduplication by ClientOrderID
}

func NewHTTPServer(eng *core.Engine, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{Eng: eng, logger: logger}
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Order Matching Backend API is running!")
	})

	api := r.Group("/api")
	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Order Matching System API!"})
	})

	api.POST("/orders", s.submitOrder)

	api.GET("/users", s.getUsers)
	api.GET("/users/products", s.getProducts)
	api.GET("/users/order-types", s.getOrderTypes)

	rl := middleware.NewRateLimiter(100 * time.Millisecond)
	matching := api.Group("/matching")
	matching.POST("/run", rl.Middleware(), s.runMatching)
	matching.GET("", s.getMatchingResults)

	return r
}

func (s *HTTPServer) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ValidateOrder(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// deduplication
	if req.ClientOrderID != "" {
		if _, exists := s.submittedID.LoadOrStore(req.ClientOrderID, struct{}{}); exists {
			c.JSON(http.StatusOK, gin.H{"message": "duplicate order", "client_order_id": req.ClientOrderID})
			return
		}
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.NewString()
	}

	o := &domain.Order{
		UserID:        req.UserID,
		Side:          domain.Side(req.Side),
		ProductID:     req.ProductID,
		Price:         req.Price,
		Volume:        req.Volume,
		ClientOrderID: clientOrderID,
	}

	if err := s.Eng.SubmitOrder(c.Request.Context(), o); err != nil {
		s.logger.Error("submit order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit order."})
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitOrderResponse{
		Message: "Order submitted successfully!",
		Order:   convertOrder(o),
	})
}

func (s *HTTPServer) runMatching(c *gin.Context) {
	trades, err := s.Eng.RunMatching(c.Request.Context())
	if err != nil {
		s.logger.Error("matching run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run matching algorithm."})
		return
	}
	c.JSON(http.StatusOK, dto.RunMatchingResponse{
		Message: "Matching algorithm executed successfully!",
		Matches: convertTrades(trades),
	})
}

func (s *HTTPServer) getMatchingResults(c *gin.Context) {
	trades, err := s.Eng.ListTrades(c.Request.Context())
	if err != nil {
		s.logger.Error("list trades failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch matching results."})
		return
	}
	if trades == nil {
		trades = []domain.TradeView{}
	}
	c.JSON(http.StatusOK, trades)
}

func (s *HTTPServer) getUsers(c *gin.Context) {
	users, err := s.Eng.ListUsers(c.Request.Context())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *HTTPServer) getProducts(c *gin.Context) {
	products, err := s.Eng.ListProducts(c.Request.Context())
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *HTTPServer) getOrderTypes(c *gin.Context) {
	types, err := s.Eng.ListOrderTypes(c.Request.Context())
	if err != nil {
		s.logger.Error("list order types failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order types"})
		return
	}
	c.JSON(http.StatusOK, types)
}

func convertOrder(o *domain.Order) dto.Order {
	return dto.Order{
		OrderID:   o.OrderID,
		UserID:    o.UserID,
		Side:      dto.Side(o.Side),
		ProductID: o.ProductID,
		Price:     o.Price,
		Volume:    o.Volume,
		Timestamp: o.Timestamp,
	}
}

func convertTrades(trades []domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = dto.Trade{
			MatchingID:   t.MatchingID,
			SellerUserID: t.SellerUserID,
			BuyerUserID:  t.BuyerUserID,
			ProductID:    t.ProductID,
			Price:        t.Price,
			Volume:       t.Volume,
			Timestamp:    t.Timestamp,
		}
	}
	return res
}

func ValidateOrder(req *dto.SubmitOrderRequest) error {
	switch req.Side {
	case dto.Buy, dto.Sell:
	default:
		return fmt.Errorf("invalid side: %s", req.Side)
	}
	if !req.Price.IsPositive() {
		return fmt.Errorf("price must be > 0")
	}
	if !req.Volume.IsPositive() {
		return fmt.Errorf("volume must be > 0")
	}
	return nil
}
