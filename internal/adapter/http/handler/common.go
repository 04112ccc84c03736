package handler

import (
	"net/http"
	"strconv"

	"bank-ledger/internal/adapter/http/middleware"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// currentUser reads the authenticated user ID, writing a 401 when absent.
func currentUser(c *gin.Context) (int64, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return 0, false
	}
	return uid, true
}

// pathID parses the :id route parameter, writing a 400 when malformed.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation("invalid account id"))
		return 0, false
	}
	return id, true
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// HealthCheck handles GET /health. Dependencies are probed in parallel and
// any failure turns the answer into 503 "degraded".
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := make([]dependencyStatus, len(checkers))

		var g errgroup.Group
		for i, checker := range checkers {
			g.Go(func() error {
				results[i] = dependencyStatus{Status: "healthy"}
				if err := checker.Ping(c.Request.Context()); err != nil {
					results[i] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
				}
				return nil
			})
		}
		_ = g.Wait()

		resp := healthResponse{Status: "healthy", Dependencies: make(map[string]dependencyStatus, len(checkers))}
		code := http.StatusOK
		for i, checker := range checkers {
			resp.Dependencies[checker.Name()] = results[i]
			if results[i].Status != "healthy" {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, resp)
	}
}
