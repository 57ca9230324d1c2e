package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voltbridge/voltbridge/internal/core/application"
	log "github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type Config struct {
	Port uint32
}

type Service struct {
	config Config
	server *http.Server
	appSvc *application.Service
}

func NewService(config Config, appSvc *application.Service) *Service {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: newRouter(appSvc),
	}
	return &Service{config, server, appSvc}
}

func newRouter(appSvc *application.Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handler{appSvc}

	v1 := router.Group("/v1")
	v1.GET("/info", h.getInfo)
	v1.GET("/swaps", h.listSwaps)
	v1.GET("/swaps/:id", h.getSwap)
	v1.POST("/swaps", h.runSwap)

	abilities := v1.Group("/abilities")
	abilities.POST("/:name/precheck", h.precheck)
	abilities.POST("/:name/execute", h.execute)

	return router
}

func (s *Service) Start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("rest server exited")
		}
	}()
	log.Infof("rest interface listening on port %d", s.config.Port)
	return nil
}

func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// nolint:all
	s.server.Shutdown(ctx)
	s.appSvc.Stop()
}
