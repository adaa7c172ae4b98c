package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SauceFoong/slot-booking-system/internal/admission"
	"github.com/SauceFoong/slot-booking-system/internal/config"
	"github.com/SauceFoong/slot-booking-system/internal/db"
	"github.com/SauceFoong/slot-booking-system/internal/fcfs"
	"github.com/SauceFoong/slot-booking-system/internal/httpapi"
	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/mq"
	"github.com/SauceFoong/slot-booking-system/internal/obs"
	"github.com/SauceFoong/slot-booking-system/internal/ratelimit"
	"github.com/SauceFoong/slot-booking-system/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Конфиг из env.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Трассировка (опционально).
	if cfg.OTELEndpoint != "" {
		shutdown, err := obs.InitTracer(ctx, "slot-booking-core", cfg.OTELEndpoint, cfg.Env)
		if err != nil {
			log.Fatalf("init tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("tracer shutdown: %v", err)
			}
		}()
	}

	// 3. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(cfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 4. Миграции моделей и ограничения хранилища.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	if err := model.ApplyConstraints(gormDB); err != nil {
		log.Fatalf("apply constraints: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 5. Репозитории (реализации на GORM).
	slotRepo := repository.NewGormSlotRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	jobRepo := repository.NewGormJobRepository(gormDB)

	// 6. Брокер событий (опционально).
	var opts []admission.Option
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("init publisher: %v", err)
		}
		defer pub.Close()
		opts = append(opts, admission.WithPublisher(pub))
	}

	// 7. Транзакция допуска.
	svc := admission.NewService(gormDB, slotRepo, bookingRepo, userRepo, eventRepo, opts...)

	// 8. Путь бронирования: напрямую либо через FCFS-очередь.
	book := httpapi.BookFunc(svc.Book)
	if cfg.FCFSEnabled {
		ser := fcfs.NewSerializer(svc,
			fcfs.WithQueueSize(cfg.FCFSQueueSize),
			fcfs.WithWaitTimeout(cfg.FCFSWaitTimeout),
			fcfs.WithJournal(jobRepo),
		)
		ser.Start(ctx)
		defer ser.Close()
		book = ser.Submit
		log.Printf("fcfs serializer enabled, queue size %d", cfg.FCFSQueueSize)
	}

	// 9. Лимитер: счётчики в Redis, иначе внутрипроцессные.
	var counters ratelimit.CounterStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		counters = ratelimit.NewRedisCounterStore(rdb)
	} else {
		mem := ratelimit.NewMemoryCounterStore()
		mem.StartJanitor(ctx)
		counters = mem
	}
	limiter := ratelimit.NewLimiter(counters, "book", cfg.BookRateLimit, cfg.BookRateWindow)

	// 10. HTTP-сервер.
	edge := httpapi.NewEdgeStore(cfg.EdgeRPS, cfg.EdgeBurst)
	edge.StartJanitor(ctx)

	router := gin.New()
	router.Use(gin.Recovery(), httpapi.EdgeLimit(edge))
	httpapi.NewHandler(svc, book, limiter).Register(router)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	log.Printf("slot booking core listening on %s", cfg.HTTPAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 11. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down http server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
