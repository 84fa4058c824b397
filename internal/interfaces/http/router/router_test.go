package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	t.Run("mounts registrars under the versioned prefix", func(t *testing.T) {
		engine := gin.New()
		NewRouter(engine).Register(pingRoutes{}).Setup()

		w := serve(engine, "/api/v1/ping")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
		assert.Equal(t, http.StatusNotFound, serve(engine, "/ping").Code)
	})

	t.Run("health and metrics live at the root", func(t *testing.T) {
		engine := gin.New()
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})
		NewRouter(engine,
			WithHealth(func(c *gin.Context) { c.String(http.StatusOK, "healthy") }),
			WithMetrics("/internal/metrics", metrics),
		).Setup()

		assert.Equal(t, "healthy", serve(engine, "/health").Body.String())
		assert.Equal(t, "# metrics", serve(engine, "/internal/metrics").Body.String())
		assert.Equal(t, http.StatusNotFound, serve(engine, "/metrics").Code)
	})

	t.Run("optional endpoints stay unmounted", func(t *testing.T) {
		engine := gin.New()
		NewRouter(engine).Setup()

		assert.Equal(t, http.StatusNotFound, serve(engine, "/health").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, "/metrics").Code)
	})
}
