package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	amqpx "github.com/ariefcatur/go-restaurant-api.git/internal/amqp"
	"github.com/ariefcatur/go-restaurant-api.git/internal/auth"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/ariefcatur/go-restaurant-api.git/internal/config"
	"github.com/ariefcatur/go-restaurant-api.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-restaurant-api.git/internal/kafka"
	"github.com/ariefcatur/go-restaurant-api.git/internal/logging"
	"github.com/ariefcatur/go-restaurant-api.git/internal/memstore"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/metrics"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/ariefcatur/go-restaurant-api.git/internal/postgres"
	"github.com/ariefcatur/go-restaurant-api.git/internal/redisx"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type stores struct {
	menu   menu.Store
	cart   cart.Store
	roles  roles.Store
	users  roles.Users
	orders orders.Store
	cache  menu.Cache
	close  func()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.ServiceName, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open stores")
	}
	defer st.close()

	pub, closePub, err := openPublisher(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open event publisher")
	}

	m := metrics.New()
	directory := roles.NewDirectory(st.roles, st.users, log)
	for _, id := range cfg.BootstrapManagers {
		if err := directory.Assign(ctx, id, roles.Manager); err != nil {
			log.WithError(err).WithField("user_id", id).Warn("bootstrap manager")
		}
	}

	api := &httpx.API{
		Menu:  menu.NewService(st.menu, st.cache, log),
		Cart:  cart.NewService(st.cart, log),
		Roles: directory,
		Orders: orders.NewEngine(st.orders, st.users, cfg.ServiceName, log,
			orders.WithPublisher(pub), orders.WithMetrics(m)),
		Gate:    access.NewGate(directory, st.orders, m, log),
		Auth:    auth.New(cfg.JWTSecret),
		Metrics: m,
		Log:     log,
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":   cfg.HTTPAddr,
			"store":  cfg.StoreBackend,
			"events": cfg.EventsBackend,
		}).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	closePub()
	cancel()
}

func openStores(ctx context.Context, cfg config.Config, log *logrus.Entry) (*stores, error) {
	users, err := parseDevUsers(cfg.DevUsers)
	if err != nil {
		return nil, err
	}

	if cfg.StoreBackend == "memory" {
		ms := memstore.New()
		for _, u := range users {
			ms.AddUser(u.id, u.username, "")
		}
		return &stores{
			menu:   ms.Catalog(),
			cart:   ms.Carts(),
			roles:  ms.Roles(),
			users:  ms,
			orders: ms.Orders(),
			close:  func() {},
		}, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN, log); err != nil {
			return nil, err
		}
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	for _, u := range users {
		if err := postgres.UpsertUser(ctx, db, u.id, u.username); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed user %d: %w", u.id, err)
		}
	}

	st := &stores{
		menu:   &menu.Repo{DB: db},
		cart:   &cart.Repo{DB: db},
		orders: &orders.Repo{DB: db},
		close:  db.Close,
	}
	rr := &roles.Repo{DB: db}
	st.roles, st.users = rr, rr

	// the menu cache is optional; without Redis every read goes to postgres
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Warn("menu cache disabled")
		} else {
			st.cache = redisx.NewMenuCache(rdb, cfg.MenuCacheTTL, log)
			st.close = func() {
				_ = rdb.Close()
				db.Close()
			}
		}
	}
	return st, nil
}

func openPublisher(ctx context.Context, cfg config.Config, log *logrus.Entry) (orders.Publisher, func(), error) {
	switch cfg.EventsBackend {
	case "kafka":
		prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, log)
		prod.Start(ctx)
		return &kafkax.EventPublisher{P: prod}, func() {
			prod.Close()      // close inbox, flush and close writer
			prod.WaitClosed() // drain
		}, nil
	case "amqp":
		p, err := amqpx.Dial(cfg.AMQPURL, log)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	}
	return orders.NopPublisher{}, func() {}, nil
}

type devUser struct {
	id       int64
	username string
}

// parseDevUsers reads "id:username" pairs.
func parseDevUsers(list []string) ([]devUser, error) {
	out := make([]devUser, 0, len(list))
	for _, s := range list {
		idStr, name, ok := strings.Cut(s, ":")
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if !ok || err != nil || id <= 0 || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("DEV_USERS: invalid entry %q, want id:username", s)
		}
		out = append(out, devUser{id: id, username: strings.TrimSpace(name)})
	}
	return out, nil
}
