// Package server assembles the HTTP route table. Every route states its
// access level, and registration refuses to guess one.
package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/handler"
	"github.com/himilaisan-astr/elts-backend/internal/middleware"
)

// Route is one entry of the route table.
type Route struct {
	Method   string
	Path     string
	Access   middleware.Access
	Handler  gin.HandlerFunc
	Action   string
	Resource string
}

// Handlers groups the HTTP handlers the table points at.
type Handlers struct {
	Auth        *handler.AuthHandler
	Dashboard   *handler.DashboardHandler
	Students    *handler.StudentHandler
	Teachers    *handler.TeacherHandler
	Courses     *handler.CourseHandler
	Enrollments *handler.EnrollmentHandler
}

// Options configures Register.
type Options struct {
	Prefix string
	Gate   middleware.Gate
	Audit  middleware.AuditRecorder
	Logger *zap.Logger
}

type resourceHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Activate(c *gin.Context)
	Deactivate(c *gin.Context)
	BulkActivate(c *gin.Context)
	BulkDeactivate(c *gin.Context)
	Delete(c *gin.Context)
	BulkDelete(c *gin.Context)
}

// Routes returns the API route table, relative to the API prefix.
func Routes(h Handlers) []Route {
	routes := []Route{
		{Method: http.MethodPost, Path: "/token", Access: middleware.Public, Handler: h.Auth.Token},
		{Method: http.MethodPost, Path: "/users", Access: middleware.Public, Handler: h.Auth.Register},
		{Method: http.MethodGet, Path: "/users/me", Access: middleware.Authenticated, Handler: h.Auth.Me},
		{Method: http.MethodGet, Path: "/dashboard/stats", Access: middleware.AdminOnly, Handler: h.Dashboard.Stats},
	}

	routes = append(routes, resourceRoutes("/students", "student", h.Students)...)
	routes = append(routes, resourceRoutes("/teachers", "teacher", h.Teachers)...)
	routes = append(routes, resourceRoutes("/courses", "course", h.Courses)...)
	routes = append(routes,
		Route{Method: http.MethodGet, Path: "/courses/:id/students", Access: middleware.Authenticated, Handler: h.Courses.Students},
		Route{Method: http.MethodGet, Path: "/courses/:id/roster", Access: middleware.AdminOnly, Handler: h.Courses.Roster},

		Route{Method: http.MethodGet, Path: "/enrollments", Access: middleware.Authenticated, Handler: h.Enrollments.List},
		Route{Method: http.MethodPost, Path: "/enrollments", Access: middleware.AdminOnly, Handler: h.Enrollments.Create, Action: "CREATE", Resource: "enrollment"},
		Route{Method: http.MethodPut, Path: "/enrollments/:id/payment-status", Access: middleware.AdminOnly, Handler: h.Enrollments.UpdatePaymentStatus, Action: "UPDATE_PAYMENT", Resource: "enrollment"},
		Route{Method: http.MethodDelete, Path: "/enrollments/:id", Access: middleware.AdminOnly, Handler: h.Enrollments.Delete, Action: "DELETE", Resource: "enrollment"},
	)
	return routes
}

func resourceRoutes(base, resource string, h resourceHandler) []Route {
	admin := func(method, suffix string, fn gin.HandlerFunc, action string) Route {
		return Route{Method: method, Path: base + suffix, Access: middleware.AdminOnly, Handler: fn, Action: action, Resource: resource}
	}
	return []Route{
		{Method: http.MethodGet, Path: base, Access: middleware.Authenticated, Handler: h.List},
		{Method: http.MethodGet, Path: base + "/:id", Access: middleware.Authenticated, Handler: h.Get},
		admin(http.MethodPost, "", h.Create, "CREATE"),
		admin(http.MethodPut, "/bulk-activate", h.BulkActivate, "BULK_ACTIVATE"),
		admin(http.MethodPut, "/bulk-deactivate", h.BulkDeactivate, "BULK_DEACTIVATE"),
		admin(http.MethodPost, "/bulk-delete", h.BulkDelete, "BULK_DELETE"),
		admin(http.MethodPut, "/:id", h.Update, "UPDATE"),
		admin(http.MethodPut, "/:id/activate", h.Activate, "ACTIVATE"),
		admin(http.MethodPut, "/:id/deactivate", h.Deactivate, "DEACTIVATE"),
		admin(http.MethodDelete, "/:id", h.Delete, "DELETE"),
	}
}

// Register mounts routes under opts.Prefix. Admin mutations are audited.
func Register(r gin.IRouter, routes []Route, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	group := r.Group(normalizePrefix(opts.Prefix))
	for _, route := range routes {
		chain := []gin.HandlerFunc{middleware.Authorize(opts.Gate, route.Access)}
		if route.Access == middleware.AdminOnly && route.Method != http.MethodGet {
			action := route.Action
			if action == "" {
				action = route.Method
			}
			chain = append(chain, middleware.Audit(opts.Audit, logger, action, route.Resource))
		}
		chain = append(chain, route.Handler)
		group.Handle(route.Method, route.Path, chain...)
		logger.Debug("route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.Stringer("access", route.Access))
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return "/"
	}
	return path.Clean("/" + prefix)
}
