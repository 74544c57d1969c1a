package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
)

type Config struct {
	conf.Version
	Web     Web
	Cors    Cors
	DB      DB
	Auth    Auth
	Mux     Mux
	Stripe  Stripe
	Rate    Rate
	Cleanup Cleanup
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:courses"`
	MaxIdleConns int    `conf:"default:5"`
	MaxOpenConns int    `conf:"default:25"`
	DisableTLS   bool   `conf:"default:true"`
}

type Auth struct {
	Issuer           string        `conf:"required"`
	ClientID         string        `conf:"required"`
	AdminID          string        `conf:"required"`
	DiscoveryTimeout time.Duration `conf:"default:10s"`
}

type Mux struct {
	URL         string        `conf:"default:https://api.mux.com"`
	TokenID     string        `conf:"required"`
	TokenSecret string        `conf:"required,mask"`
	Timeout     time.Duration `conf:"default:15s"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	Currency      string `conf:"default:jpy"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/courses?success=1"`
	CancelURL     string `conf:"default:http://localhost:3000/courses?canceled=1"`
}

type Rate struct {
	Burst    int     `conf:"default:5"`
	Expiry   int     `conf:"default:10"`
	LimitRPS float64 `conf:"default:1"`
}

type Cleanup struct {
	Schedule string        `conf:"default:@every 5m"`
	Timeout  time.Duration `conf:"default:1m"`
}
