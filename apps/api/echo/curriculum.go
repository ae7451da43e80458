package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core/curriculum"
	"github.com/learntocloud/ltc-backend/core/progress"
)

type curriculumApi struct {
	catalog     *curriculum.Catalog
	progressSvc progress.Service
}

func registerCurriculumAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	catalog *curriculum.Catalog,
	progressSvc progress.Service,
) {
	api := curriculumApi{
		catalog:     catalog,
		progressSvc: progressSvc,
	}

	cg := g.Group("/curriculum", jwt)
	cg.GET("/phases", api.queryPhases)
	cg.GET("/phases/:phase", api.retrievePhase)
	cg.GET("/phases/:phase/topics/:slug", api.retrieveTopic)
}

func isCatalogNotFound(err error) bool {
	cause := errors.Cause(err)
	return cause == curriculum.ErrPhaseNotFound || cause == curriculum.ErrTopicNotFound
}

// bindPhaseParam parses the :phase path param.
func bindPhaseParam(ctx echo.Context) (int, error) {
	phase, err := strconv.Atoi(ctx.Param("phase"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return phase, nil
}

// PhaseSummary is the catalog phase stripped down for listings; full
// content stays behind the detail endpoint.
type PhaseSummary struct {
	Number          int    `json:"phase"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	TopicCount      int    `json:"topic_count"`
	StepCount       int    `json:"step_count"`
	QuestionCount   int    `json:"question_count"`
	HandsOnRequired bool   `json:"hands_on_required"`
}

func (api *curriculumApi) queryPhases(ctx echo.Context) error {
	phases := api.catalog.Phases()
	summaries := make([]PhaseSummary, 0, len(phases))
	for _, ph := range phases {
		summaries = append(summaries, PhaseSummary{
			Number:          ph.Number,
			Slug:            ph.Slug,
			Name:            ph.Name,
			Description:     ph.Description,
			TopicCount:      len(ph.Topics),
			StepCount:       ph.StepCount(),
			QuestionCount:   ph.QuestionCount(),
			HandsOnRequired: ph.RequiresHandsOn(),
		})
	}
	return ctx.JSON(http.StatusOK, summaries)
}

// retrievePhase returns the full phase content. Locked phases stay
// hidden so learners cannot skip ahead.
func (api *curriculumApi) retrievePhase(ctx echo.Context) error {
	phase, err := bindPhaseParam(ctx)
	if err != nil {
		return err
	}

	ph, err := api.catalog.Phase(phase)
	if err != nil {
		return errHttpNotFound
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	unlocked, err := api.progressSvc.PhaseUnlocked(claims.Subject, phase)
	if err != nil {
		return errors.Wrap(err, "checking phase unlock")
	}
	if !unlocked && !claims.IsAdmin {
		return errPhaseLocked
	}

	return ctx.JSON(http.StatusOK, ph)
}

func (api *curriculumApi) retrieveTopic(ctx echo.Context) error {
	phase, err := bindPhaseParam(ctx)
	if err != nil {
		return err
	}

	topic, err := api.catalog.Topic(phase, ctx.Param("slug"))
	if err != nil {
		return errHttpNotFound
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	unlocked, err := api.progressSvc.PhaseUnlocked(claims.Subject, phase)
	if err != nil {
		return errors.Wrap(err, "checking phase unlock")
	}
	if !unlocked && !claims.IsAdmin {
		return errPhaseLocked
	}

	return ctx.JSON(http.StatusOK, topic)
}
