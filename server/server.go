package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"gorm.io/gorm"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/NeonAnubis/afrimail-backend/api"
	"github.com/NeonAnubis/afrimail-backend/internal/config"
	"github.com/NeonAnubis/afrimail-backend/internal/cron"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/repository"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
	"github.com/NeonAnubis/afrimail-backend/services"
)

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	repos := repository.InitRepositories(db)
	svcs := services.InitServices(cfg, appLogger, repos)

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	return &Server{
		config:       cfg,
		log:          appLogger,
		router:       router,
		services:     svcs,
		repositories: repos,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) Initialize(ctx context.Context) error {
	api.RegisterRoutes(ctx, s.router, s.services, s.repositories, s.config.AppConfig.APIKey)

	// Sync sweeps only make sense with a configured control plane
	if s.services.MailcowClient.IsConfigured() {
		s.cronManager = cron.NewCronManager(s.config, s.log, kubernetesClient(), s.services.SyncService)
	} else {
		s.log.Warn("mailcow is not configured, cache sync jobs disabled")
	}

	return nil
}

// kubernetesClient builds an in-cluster client for leader election. Outside a
// cluster it returns nil and the cron manager runs in local mode.
func kubernetesClient() kubernetes.Interface {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil
	}
	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil
	}
	return client
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		log.Printf("Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Initialize(ctx); err != nil {
		return err
	}

	if s.cronManager != nil {
		podName := os.Getenv("POD_NAME")
		namespace := os.Getenv("POD_NAMESPACE")
		if namespace == "" {
			namespace = "default"
		}
		s.wrapGoroutine("cron_manager", func() {
			if err := s.cronManager.Start(podName, namespace); err != nil {
				log.Printf("Cron manager error: %v", err)
			}
		})
	}

	go s.wrapGoroutine("http_server", func() {
		log.Println("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	})
	log.Println("Afrimail backend is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server shut down successfully")
	}

	if s.cronManager != nil {
		stopDone := make(chan struct{})
		go s.wrapGoroutine("cron_shutdown", func() {
			defer close(stopDone)
			s.cronManager.Stop()
		})

		select {
		case <-stopDone:
			log.Println("Cron manager stopped gracefully")
		case <-time.After(10 * time.Second):
			log.Println("Cron manager stop timed out, forcing exit")
		}
	}

	return nil
}
