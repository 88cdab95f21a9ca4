// Package gateway exposes typed CJ catalog and order operations.
// Every operation returns a model.Result and never an error: transport
// failures, supplier rejections and bad input all fold into Result.Error.
package gateway

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"cj-bridge/internal/model"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 200

	defaultCountry = "US"
	startCountry   = "CN"
)

// API is the signed CJ transport. *cj.Client implements it.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
}

// Config holds operator settings the gateway applies to every call.
type Config struct {
	Pricing        model.TransformConfig
	DefaultCountry string // fallback destination country, ISO alpha-2
	StartCountry   string // warehouse country for freight quotes
}

// Gateway is the CJ catalog and order surface. Safe for concurrent use.
type Gateway struct {
	api      API
	cfg      Config
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a Gateway. Zero config fields get defaults.
func New(api API, cfg Config, logger *slog.Logger) *Gateway {
	cfg.Pricing = cfg.Pricing.Normalize()
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = defaultCountry
	}
	if cfg.StartCountry == "" {
		cfg.StartCountry = startCountry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		api:      api,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// fail logs err for op and folds it into a failed Result.
func fail[T any](g *Gateway, op string, err error) model.Result[T] {
	g.logger.Warn("CJ operation failed", "op", op, "error", err)
	return model.Fail[T](err)
}

func failList[T any](g *Gateway, op string, err error) model.ListResult[T] {
	g.logger.Warn("CJ operation failed", "op", op, "error", err)
	return model.FailList[T](err)
}

// page clamps pagination to CJ's accepted range.
func page(p, size int) (int, int) {
	if p < 1 {
		p = defaultPage
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return p, size
}

func pageQuery(q url.Values, numKey string, p, size int) {
	q.Set(numKey, strconv.Itoa(p))
	q.Set("pageSize", strconv.Itoa(size))
}
