package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/restomarket/restomarket/gateway"
	"github.com/restomarket/restomarket/models"
	"github.com/restomarket/restomarket/supplier"
)

const (
	defaultLogSamplingTick  = 5 * time.Second
	defaultLogSamplingAfter = 2 * time.Second
)

// loadConfig reads config.yaml when present and lets the environment win.
func loadConfig() (models.Config, error) {
	var cfg models.Config
	for _, path := range []string{"./config.yaml", "../config.yaml"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
		logrusLogger.Printf("Loaded config from %s", path)
		break
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.DatabaseDriver = v
	}
	if v := os.Getenv("JWT_KEY"); v != "" {
		cfg.JWTKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if os.Getenv("DEBUG") != "" {
		cfg.IsDebug = true
	}
	cfg.Defaults()
	return cfg, nil
}

func configureLogger(cfg models.Config) {
	logrusLogger.Out = os.Stderr
	if cfg.IsDebug {
		logrusLogger.SetLevel(logrus.DebugLevel)
		logrusLogger.SetReportCaller(true)
	} else {
		logrusLogger.SetLevel(logrus.InfoLevel)
	}
	logrusLogger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
}

func logSampling(cfg models.Config) gateway.LogSamplingConfig {
	return gateway.LogSamplingConfig{
		Tick:  durationFromMs(cfg.LogSamplingTickMs, defaultLogSamplingTick),
		After: durationFromMs(cfg.LogSamplingAfterMs, defaultLogSamplingAfter),
	}
}

func durationFromMs(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// GetMainEngine builds the gin engine with all routes and middleware.
func GetMainEngine(cfg models.Config, svc *supplier.Service) *gin.Engine {
	registerCustomValidations()

	route := gin.New()
	route.Use(gin.Recovery())
	route.Use(gateway.RequestID())
	route.Use(gateway.RequestLogger(logrusLogger, logSampling(cfg)))
	route.Use(gateway.Instrumentation())
	route.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Cors,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	route.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := route.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.POST("/auth/login", svc.Login)

	authed := api.Group("", svc.Auth.AuthMiddleware())
	{
		authed.GET("/auth/me", svc.Me)
		authed.GET("/supplier/restaurants", svc.MyRestaurants)
		authed.POST("/supplier/links/:restaurantId/accept", svc.AcceptLink)
		authed.POST("/supplier/links/:restaurantId/pause", svc.PauseLink)
	}
	return route
}

func registerCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("inn", func(fl validator.FieldLevel) bool {
			return models.ValidINN(fl.Field().String())
		})
	}
}
