package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/middleware"
	"github.com/valr-fintech/treasury-ledger/internal/platform/config"
)

// operatorHeader identifies the operator driving admin calls. Authentication
// happens upstream of this service; the header is trusted plumbing for audit
// fields only.
const operatorHeader = "X-Operator-ID"

func operatorID(c *gin.Context) string {
	if op := c.GetHeader(operatorHeader); op != "" {
		return op
	}
	return "SYSTEM"
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	// Settlement mutations hit external rails; keep a lid on bursts.
	rate, err := limiter.NewRateFromFormatted("120-M")
	if err != nil {
		panic("invalid settlement rate limit format: " + err.Error())
	}
	store := memory.NewStore()
	mutationLimiter := limiter.New(store, rate)

	RegisterFloatAccountRoutes(v1, services.FloatAccount)
	RegisterSettlementRoutes(v1, services.Settlement, middleware.RateLimit(mutationLimiter))
	RegisterFeeRoutes(v1, services.Fee)
}
