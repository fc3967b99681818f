package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

// RequireStatus lets a request through only while the user is in one of the
// allowed onboarding phases. The stored status wins over the token claim.
func RequireStatus(store *session.Store, allowed ...models.OnboardingStatus) gin.HandlerFunc {
	allow := map[models.OnboardingStatus]struct{}{}
	for _, a := range allowed {
		allow[a] = struct{}{}
	}

	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "unauthorized",
			})
			return
		}

		v, _ := c.Get("status")
		claim, _ := v.(models.OnboardingStatus)
		status, err := store.For(userID, claim).OnboardingStatus(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{
				Code:    utils.CodeUnavailable,
				Message: "failed to read onboarding status",
			})
			return
		}

		if _, ok := allow[status]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":     utils.CodeForbidden,
				"message":  "not available in the current onboarding phase",
				"status":   status,
				"redirect": status.StartPath(),
			})
			return
		}

		c.Set("status", status)
		c.Next()
	}
}
