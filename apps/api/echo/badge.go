package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core/badge"
)

type badgeApi struct {
	svc badge.Service
}

func registerBadgeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc badge.Service) {
	api := badgeApi{svc: svc}

	// public: anyone can verify a certificate code
	g.GET("/certificates/verify/:code", api.verifyCertificate)

	bg := g.Group("/badges", jwt)
	bg.GET("", api.queryBadges)
	bg.GET("/certificate", api.retrieveCertificate)
}

func (api *badgeApi) queryBadges(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	badges, err := api.svc.QueryBadges(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying badges")
	}
	if badges == nil {
		badges = []badge.Badge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *badgeApi) retrieveCertificate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cert, err := api.svc.GetCertificate(claims.Subject)
	if err != nil {
		if errors.Cause(err) == badge.ErrCertificateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (api *badgeApi) verifyCertificate(ctx echo.Context) error {
	cert, err := api.svc.VerifyCertificate(ctx.Param("code"))
	if err != nil {
		if errors.Cause(err) == badge.ErrCertificateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}
