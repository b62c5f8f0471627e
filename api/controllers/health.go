package controllers

import (
	"net/http"

	"github.com/farmbasket/farmbasket-backend/api/responses"
	"github.com/farmbasket/farmbasket-backend/pkg/config"
	"github.com/farmbasket/farmbasket-backend/pkg/db"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	"github.com/farmbasket/farmbasket-backend/pkg/redis"
)

const envHeader = "X-FarmBasket-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
