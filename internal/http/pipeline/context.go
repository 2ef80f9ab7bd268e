// Context accessors for values the pipeline attaches per request: the
// resolved identity and the typed results of each validation stage.
// Handlers call the typed accessors instead of reaching into gin keys.
package pipeline

import (
	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

const (
	ctxKeyIdentity = "pipeline.identity"
	ctxKeyBody     = "pipeline.body"
	ctxKeyQuery    = "pipeline.query"
	ctxKeyParams   = "pipeline.params"
)

// Identity returns the authenticated identity attached by the pipeline, or
// nil for routes that do not authenticate.
func Identity(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(ctxKeyIdentity); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}

// Body returns the validated request body as *T. It returns nil when the
// route has no body schema or T does not match the schema's type; both are
// wiring bugs surfaced by the route's tests.
func Body[T any](c *gin.Context) *T { return typedValue[T](c, ctxKeyBody) }

// Query returns the validated query parameters as *T.
func Query[T any](c *gin.Context) *T { return typedValue[T](c, ctxKeyQuery) }

// Params returns the validated path parameters as *T.
func Params[T any](c *gin.Context) *T { return typedValue[T](c, ctxKeyParams) }

func typedValue[T any](c *gin.Context, key string) *T {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(*T); ok {
			return t
		}
	}
	return nil
}
