// Package server wires the HTTP routes and lifecycle of the vyrad service.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kirannarayanak/vyra/internal/config"
	"github.com/kirannarayanak/vyra/internal/handlers"
	"github.com/kirannarayanak/vyra/internal/middleware"
	"github.com/kirannarayanak/vyra/sdk"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 10 * time.Second

// Server is the vyrad HTTP server.
type Server struct {
	cfg  *config.Config
	log  *logrus.Logger
	http *http.Server
}

// New builds the server with all routes registered.
func New(cfg *config.Config, s *sdk.SDK, log *logrus.Logger) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS(cfg.AllowedOrigins))

	h := handlers.New(s, log)
	engine.GET("/health", h.Health)

	api := engine.Group("/api/v1")
	{
		api.GET("/network", h.Network)

		api.GET("/wallet", h.WalletInfo)
		api.GET("/wallet/balance/:address", h.VyraBalance)

		api.POST("/payments", h.SendPayment)
		api.POST("/payments/estimate", h.EstimatePayment)
		api.POST("/payments/split", h.SplitPayment)
		api.GET("/payments/:id", h.PaymentReceipt)

		api.POST("/invoices", h.CreateInvoice)
		api.POST("/invoices/:id/pay", h.PayInvoice)
		api.GET("/merchant/stats", h.MerchantStats)

		api.POST("/session-keys", h.CreateSessionKey)
		api.DELETE("/session-keys/:address", h.RevokeSessionKey)
		api.GET("/session-keys/:user", h.SessionKeyInfo)
		api.POST("/paymaster/sponsor", h.AddSponsorBalance)
		api.GET("/paymaster/stats", h.PaymasterStats)

		api.POST("/bridge/deposits", h.BridgeDeposit)
		api.POST("/bridge/deposits/:id/process", h.ProcessDeposit)
		api.POST("/bridge/withdrawals", h.InitiateWithdrawal)
		api.GET("/bridge/validators", h.BridgeValidators)
		api.GET("/bridge/stats", h.BridgeStats)

		api.POST("/messages/sign", h.SignMessage)
		api.POST("/messages/verify", h.VerifyMessage)
	}

	return &Server{
		cfg: cfg,
		log: log,
		http: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: engine,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.http.Addr).Info("vyrad listening")
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
