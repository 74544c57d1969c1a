package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/course-market/api"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/auth"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/muxapi"
	"github.com/irsalhamdi/course-market/rate"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

var build = "develop"

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "COURSES"
	cfg := config.Config{
		Version: conf.Version{
			Build: build,
			Desc:  "course marketplace api",
		},
	}

	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	logger.Infof("startup config:\n%s", out)

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate the database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Auth.DiscoveryTimeout)
	defer cancel()
	verifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.ClientID)
	if err != nil {
		return fmt.Errorf("failed to discover the identity provider: %w", err)
	}

	assets := muxapi.New(cfg.Mux.URL, cfg.Mux.TokenID, cfg.Mux.TokenSecret, cfg.Mux.Timeout)
	cleaner := muxdata.NewCleaner(db, assets, logger.WithField("component", "asset-cleaner"))

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Cleanup.Schedule, cleaner.Job(cfg.Cleanup.Timeout)); err != nil {
		return fmt.Errorf("scheduling asset cleanup %q: %w", cfg.Cleanup.Schedule, err)
	}
	sched.Start()

	strp := &stripecl.API{}
	strp.Init(cfg.Stripe.APISecret, nil)

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.Expiry, rate.PerSecond(cfg.Rate.LimitRPS))
	defer limiter.Stop()

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		DB:         db,
		Verifier:   verifier,
		IsAdmin:    auth.AdminID(cfg.Auth.AdminID),
		Assets:     assets,
		Cleaner:    cleaner,
		Stripe:     strp,
		StripeCfg:  cfg.Stripe,
		Limiter:    limiter,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		<-sched.Stop().Done()
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		select {
		case <-sched.Stop().Done():
		case <-ctx.Done():
			return errors.New("could not complete the running asset cleanup")
		}
	}
	return nil
}
