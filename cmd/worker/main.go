package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prasetya/reminder-gateway/internal/channel"
	"github.com/prasetya/reminder-gateway/internal/config"
	"github.com/prasetya/reminder-gateway/internal/dispatch"
	"github.com/prasetya/reminder-gateway/internal/repository"
	"github.com/prasetya/reminder-gateway/internal/scheduler"
	"github.com/prasetya/reminder-gateway/pkg/logger"
	"github.com/prasetya/reminder-gateway/pkg/pg"
	"github.com/prasetya/reminder-gateway/pkg/prom"
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

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	bridge, err := channel.NewBridgeClient(&channel.BridgeConfig{
		URL:     config.Get().BridgeURL,
		Timeout: config.Get().BridgeTimeout,
	})
	if err != nil {
		logger.Error("failed to create bridge client", "error", err)
		return
	}

	stateStore := channel.NewStateStore(redisAdap)
	session := channel.NewSession(bridge, stateStore, &channel.SessionConfig{
		ProbeInterval: config.Get().BridgeProbeInterval,
		BackoffBase:   config.Get().BridgeBackoffBase,
		BackoffMax:    config.Get().BridgeBackoffMax,
	})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	templates := dispatch.LoadTemplates(config.Get().TemplatePath, rng)

	reminderRepo := repository.NewReminderRepository(db)
	dispatchLogRepo := repository.NewDispatchLogRepository(db)
	dispatcher := dispatch.NewDispatcher(session, templates, config.Get().CountryPrefix)

	sched := scheduler.NewScheduler(reminderRepo, dispatchLogRepo, session, dispatcher, &scheduler.Config{
		PollInterval: config.Get().SchedulerPollInterval,
		JitterMin:    config.Get().SchedulerJitterMin,
		JitterMax:    config.Get().SchedulerJitterMax,
	})

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	sessionCtx, cancelSession := context.WithCancel(context.Background())
	go session.Run(sessionCtx)

	go func() {
		err := sched.Start()
		if err != nil {
			logger.Error("failed to start scheduler", "error", err)
		}
	}()

	select {
	case <-c:
		sched.Stop()
		cancelSession()
		session.Stop()
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
