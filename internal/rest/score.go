package rest

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/chain"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/services"
)

const errInvalidAddress = "A valid address is required"

// Scorer computes a score for one address.
type Scorer interface {
	ComputeScore(ctx context.Context, user common.Address, q domain.Query) (domain.ScoreResponse, error)
}

type ScoreController struct {
	scorer Scorer
	logger zerolog.Logger
}

func NewScoreController(scorer Scorer, logger zerolog.Logger) *ScoreController {
	return &ScoreController{scorer: scorer, logger: logger}
}

// RegisterScoreRoutes mounts the multi-purpose score route and the legacy
// referral check.
func (c *ScoreController) RegisterScoreRoutes(rg *gin.RouterGroup) {
	for path, handler := range map[string]gin.HandlerFunc{
		"/api/score": c.handleScore,
		"/api/check": c.handleLegacyCheck,
	} {
		rg.GET(path, handler)
		rg.POST(path, handler)
		// Answered by the CORS middleware.
		rg.OPTIONS(path, func(*gin.Context) {})
	}
}

func (c *ScoreController) handleScore(ctx *gin.Context) {
	user, ok := c.address(ctx)
	if !ok {
		return
	}
	raw := param(ctx, "type")
	check, known := domain.ParseCheckType(raw)
	if !known && raw != "" {
		c.logger.Debug().Str("type", raw).Msg("unrecognized check type, using referral")
	}
	c.respond(ctx, user, domain.QueryFor(check))
}

func (c *ScoreController) handleLegacyCheck(ctx *gin.Context) {
	user, ok := c.address(ctx)
	if !ok {
		return
	}
	c.respond(ctx, user, domain.LegacyQuery)
}

func (c *ScoreController) address(ctx *gin.Context) (common.Address, bool) {
	user, err := chain.ValidateAddress(param(ctx, "address"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidAddress})
		return common.Address{}, false
	}
	return user, true
}

func (c *ScoreController) respond(ctx *gin.Context, user common.Address, q domain.Query) {
	reqCtx := services.WithRequestID(ctx.Request.Context(), ctx.GetString(ctxRequestID))
	resp, err := c.scorer.ComputeScore(reqCtx, user, q)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("request_id", ctx.GetString(ctxRequestID)).
			Str("address", user.Hex()).
			Str("check", string(q.Check)).
			Msg("compute score failed")
		ctx.JSON(http.StatusInternalServerError, domain.ScoreResponse{Score: 0})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// param reads a query parameter, falling back to a form field on POST.
func param(ctx *gin.Context, key string) string {
	if v, ok := ctx.GetQuery(key); ok {
		return v
	}
	return ctx.PostForm(key)
}
