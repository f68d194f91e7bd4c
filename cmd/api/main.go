package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prasetya/reminder-gateway/internal/channel"
	"github.com/prasetya/reminder-gateway/internal/config"
	"github.com/prasetya/reminder-gateway/internal/handlers"
	"github.com/prasetya/reminder-gateway/internal/repository"
	"github.com/prasetya/reminder-gateway/internal/services"
	xhttp "github.com/prasetya/reminder-gateway/pkg/http"
	"github.com/prasetya/reminder-gateway/pkg/logger"
	"github.com/prasetya/reminder-gateway/pkg/pg"
	"github.com/prasetya/reminder-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	reminderRepo := repository.NewReminderRepository(db)
	dispatchLogRepo := repository.NewDispatchLogRepository(db)
	stateStore := channel.NewStateStore(redisAdap)

	// services
	admission := services.NewAdmissionService(reminderRepo, config.Get().ReminderMaxPending)
	reminderService := services.NewReminderService(reminderRepo, admission, config.Get().ReminderBodyMaxLen)
	healthService := services.NewHealthService()

	// v1 handlers
	reminderHandler := handlers.NewReminderHandler(reminderService, dispatchLogRepo)
	channelHandler := handlers.NewChannelHandler(stateStore)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterReminderRoutes(g, reminderHandler)
	handlers.RegisterChannelRoutes(g, channelHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
