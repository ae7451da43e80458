package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core/badge"
	"github.com/learntocloud/ltc-backend/core/progress"
	"github.com/learntocloud/ltc-backend/core/user"
)

type progressApi struct {
	svc      progress.Service
	badgeSvc badge.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc progress.Service,
	badgeSvc badge.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := progressApi{
		svc:      svc,
		badgeSvc: badgeSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	pg := g.Group("/progress", jwt)
	pg.POST("/toggle", api.toggle)
	pg.GET("/dashboard", api.dashboard)
	pg.GET("/phases/:phase", api.retrievePhase)
	pg.GET("/phases/:phase/topics/:slug", api.retrieveTopic)
	pg.DELETE("", api.reset)
}

type (
	// ToggleResponse reports the saved record plus anything newly earned
	// because of it.
	ToggleResponse struct {
		Record        progress.Record    `json:"record"`
		AwardedBadges []badge.Badge      `json:"awarded_badges,omitempty"`
		Certificate   *badge.Certificate `json:"certificate,omitempty"`
	}

	// DashboardResponse merges progress aggregates with earned awards.
	DashboardResponse struct {
		progress.Dashboard
		Badges      []badge.Badge      `json:"badges"`
		Certificate *badge.Certificate `json:"certificate,omitempty"`
	}
)

func (api *progressApi) toggle(ctx echo.Context) error {
	var data progress.ToggleItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.ToggleItem(usr.ID, data)
	if err != nil {
		if errors.Cause(err) == progress.ErrPhaseLocked {
			return errPhaseLocked
		}
		return errors.Wrap(err, "toggling item")
	}

	// completing an item may complete a phase; re-evaluate awards
	awarded, cert, err := api.badgeSvc.Evaluate(usr)
	if err != nil {
		return errors.Wrap(err, "evaluating awards")
	}

	return ctx.JSON(http.StatusOK, ToggleResponse{
		Record:        rec,
		AwardedBadges: awarded,
		Certificate:   cert,
	})
}

func (api *progressApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	d, err := api.svc.Dashboard(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}

	badges, err := api.badgeSvc.QueryBadges(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying badges")
	}
	if badges == nil {
		badges = []badge.Badge{}
	}

	res := DashboardResponse{Dashboard: d, Badges: badges}
	if cert, err := api.badgeSvc.GetCertificate(claims.Subject); err == nil {
		res.Certificate = &cert
	} else if errors.Cause(err) != badge.ErrCertificateNotFound {
		return errors.Wrap(err, "getting certificate")
	}

	return ctx.JSON(http.StatusOK, res)
}

func (api *progressApi) retrievePhase(ctx echo.Context) error {
	phase, err := bindPhaseParam(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	pp, err := api.svc.PhaseProgress(claims.Subject, phase)
	if err != nil {
		if isCatalogNotFound(err) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting phase progress")
	}
	return ctx.JSON(http.StatusOK, pp)
}

func (api *progressApi) retrieveTopic(ctx echo.Context) error {
	phase, err := bindPhaseParam(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tp, err := api.svc.TopicProgress(claims.Subject, phase, ctx.Param("slug"))
	if err != nil {
		if isCatalogNotFound(err) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting topic progress")
	}
	return ctx.JSON(http.StatusOK, tp)
}

// reset wipes the caller's own progress records. Badges and certificates
// are kept; they are never revoked.
func (api *progressApi) reset(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.ResetUser(claims.Subject); err != nil {
		return errors.Wrap(err, "resetting progress")
	}
	return ctx.NoContent(http.StatusNoContent)
}
