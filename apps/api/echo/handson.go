package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/badge"
	"github.com/learntocloud/ltc-backend/core/handson"
	"github.com/learntocloud/ltc-backend/core/user"
)

type handsOnApi struct {
	svc      handson.Service
	badgeSvc badge.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerHandsOnAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc handson.Service,
	badgeSvc badge.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := handsOnApi{
		svc:      svc,
		badgeSvc: badgeSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	hg := g.Group("/handson", jwt)
	hg.POST("/submissions", api.submit)
	hg.GET("/submissions", api.query)
	hg.GET("/phases/:phase", api.retrieve)
}

// SubmitResponse reports the verification outcome plus anything newly
// earned because of it.
type SubmitResponse struct {
	Submission    handson.Submission `json:"submission"`
	AwardedBadges []badge.Badge      `json:"awarded_badges,omitempty"`
	Certificate   *badge.Certificate `json:"certificate,omitempty"`
}

func (api *handsOnApi) submit(ctx echo.Context) error {
	var data handson.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		switch errors.Cause(err) {
		case handson.ErrNoHandsOnRequired:
			return core.NewValidationError(nil, core.FieldError{Field: "phase", Error: "phase has no hands-on project"})
		default:
			if isCatalogNotFound(err) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "submitting hands-on project")
		}
	}

	// a verified submission may complete a phase; re-evaluate awards
	awarded, cert, err := api.badgeSvc.Evaluate(usr)
	if err != nil {
		return errors.Wrap(err, "evaluating awards")
	}

	return ctx.JSON(http.StatusOK, SubmitResponse{
		Submission:    sub,
		AwardedBadges: awarded,
		Certificate:   cert,
	})
}

func (api *handsOnApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	subs, err := api.svc.QueryAll(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []handson.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *handsOnApi) retrieve(ctx echo.Context) error {
	phase, err := bindPhaseParam(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.Get(claims.Subject, phase)
	if err != nil {
		if errors.Cause(err) == handson.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
