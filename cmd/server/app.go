package main

import (
	"context"
	"fmt"
	"time"

	"alcyxob/blockcoach/internal/api"
	"alcyxob/blockcoach/internal/cache"
	"alcyxob/blockcoach/internal/config"
	"alcyxob/blockcoach/internal/logging"
	"alcyxob/blockcoach/internal/metrics"
	"alcyxob/blockcoach/internal/repository"
	"alcyxob/blockcoach/internal/repository/memory"
	"alcyxob/blockcoach/internal/repository/mongo"
	"alcyxob/blockcoach/internal/service"
	"alcyxob/blockcoach/internal/session"
	"alcyxob/blockcoach/internal/storage"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/multierr"
)

// repos is the full set of repositories behind the services.
type repos struct {
	users     repository.UserRepository
	blocks    repository.BlockRepository
	templates repository.TemplateRepository
	weeks     repository.WeekRepository
	days      repository.DayRepository
	exercises repository.ExerciseRepository
	sets      repository.SetRepository
	movements repository.MovementRepository
	uploads   repository.UploadRepository
}

func mongoRepos(db *mongodriver.Database) repos {
	return repos{
		users:     mongo.NewMongoUserRepository(db),
		blocks:    mongo.NewMongoBlockRepository(db),
		templates: mongo.NewMongoTemplateRepository(db),
		weeks:     mongo.NewMongoWeekRepository(db),
		days:      mongo.NewMongoDayRepository(db),
		exercises: mongo.NewMongoExerciseRepository(db),
		sets:      mongo.NewMongoSetRepository(db),
		movements: mongo.NewMongoMovementRepository(db),
		uploads:   mongo.NewMongoUploadRepository(db),
	}
}

func memoryRepos() repos {
	store := memory.NewStore()
	return repos{
		users:     store.Users(),
		blocks:    store.Blocks(),
		templates: store.Templates(),
		weeks:     store.Weeks(),
		days:      store.Days(),
		exercises: store.Exercises(),
		sets:      store.Sets(),
		movements: store.Movements(),
		uploads:   store.Uploads(),
	}
}

// app holds everything built from the configuration.
type app struct {
	cfg      config.Config
	services api.Services
	instr    *metrics.Instrumentation
	limiter  api.RequestRateLimiter
	mongoDB  *mongodriver.Database
	closers  []func() error
}

func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}

// loadConfig reads the configuration and sets up logrus from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	if cfg.JWT.Secret == "" {
		return cfg, fmt.Errorf("jwt.secret (JWT_SECRET) must be set")
	}
	return cfg, nil
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var r repos
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using the in-memory store, data is lost on exit")
		r = memoryRepos()
	case "mongo", "":
		client, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() error { return mongo.DisconnectDB(client) })
		a.mongoDB = client.Database(cfg.Database.Name)
		r = mongoRepos(a.mongoDB)
		log.Infof("connected to MongoDB database %q", cfg.Database.Name)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	var revoker session.Revoker
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, redisClient.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		revoker = session.NewRedisRevoker(redisClient)
		a.limiter = redis_rate.NewLimiter(redisClient)
		log.Infof("redis at %s enables logout revocation and rate limiting", cfg.Redis.Addr)
	} else {
		log.Warn("redis.addr is empty: logout only discards the token client-side and /auth is not rate limited")
	}

	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("initialize S3 storage: %w", err)
		}
		fileStorage = s3Storage
	} else {
		log.Warn("s3.bucket_name is empty: set videos are disabled")
	}

	if cfg.Metrics.Enabled {
		a.instr = metrics.NewInstrumentation("blockcoach", "server")
	}

	profiles := cache.NewProfileCache(cfg.Cache.ProfileSizeMB, cfg.Cache.ProfileTTL)
	connections := service.NewConnectionService(r.users, profiles)
	deps := service.ProgramDeps{
		Blocks:    r.blocks,
		Templates: r.templates,
		Tree: service.TreeRepos{
			Weeks:     r.weeks,
			Days:      r.days,
			Exercises: r.exercises,
			Sets:      r.sets,
		},
		Movements:   r.movements,
		Connections: connections,
	}
	if a.instr != nil {
		deps.Metrics = a.instr
	}

	a.services = api.Services{
		Auth:        service.NewAuthService(r.users, revoker, cfg.JWT.Secret, cfg.JWT.Expiration),
		Users:       service.NewUserService(r.users, profiles),
		Connections: connections,
		Programs:    service.NewProgramService(deps),
		Tree:        service.NewTreeService(deps),
		TrainingLog: service.NewTrainingLogService(deps),
		Movements:   service.NewMovementService(r.movements),
		Media:       service.NewMediaService(deps, r.uploads, fileStorage, cfg.S3.PresignExpiry),
	}
	return a, nil
}
