package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/learntocloud/ltc-backend/core"
)

// HealthResponse is the /health payload; status is "ok", "db down" or
// "redis down". The redis field is omitted when no cache is configured.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
	Env    string `json:"env"`
	Build  string `json:"build"`
}

func newHealthHandler(db, cache Pinger, conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		res := HealthResponse{
			Status: "ok",
			Env:    conf.Env,
			Build:  conf.Build,
		}
		if cache != nil {
			res.Redis = "ok"
			if err := cache.Ping(); err != nil {
				res.Redis = "down"
			}
		}
		if db != nil {
			if err := db.Ping(); err != nil {
				res.Status = "db down"
				return ctx.JSON(http.StatusServiceUnavailable, res)
			}
		}
		if res.Redis == "down" {
			res.Status = "redis down"
			return ctx.JSON(http.StatusServiceUnavailable, res)
		}
		return ctx.JSON(http.StatusOK, res)
	}
}
