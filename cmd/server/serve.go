package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"people_api/internal/config"
	"people_api/internal/handler"
	"people_api/internal/middleware"
	"people_api/pkg/log"
	"people_api/pkg/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		log.Error("Failed to initialize dependencies", err)
		return err
	}
	defer a.close()

	resolver := a.directoryResolver()
	checks := map[string]handler.Pinger{"mysql": a.pingMySQL}
	if a.store != nil {
		checks["redis"] = a.pingRedis
	}
	if a.es != nil {
		checks["elasticsearch"] = a.es.Ping
	}

	var jwtManager *token.JWTManager
	if cfg.Auth.Enabled {
		jwtManager = token.NewJWTManager(cfg.Auth.Secret, tokenDuration(cfg))
	} else {
		log.Warnf("Editor auth disabled, write endpoints are open")
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.Metrics(), cors.New(corsConfig(cfg.Server.CORSOrigins)))

	handler.RegisterRoutes(r, cfg.Server.RoutePrefix, handler.Handlers{
		People:    handler.NewPeopleHandler(a.peopleService(resolver)),
		Directory: handler.NewDirectoryHandler(resolver),
		Term:      handler.NewTermHandler(a.termService()),
		Health:    handler.NewHealthHandler(checks),
	}, jwtManager)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务关闭异常", err)
		return err
	}
	log.Info("服务已退出")
	return nil
}

// corsConfig 根据允许的来源构造跨域配置，包含 "*" 时放开全部来源。
func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	return cc
}
