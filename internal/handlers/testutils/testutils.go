package testutils

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams кладет параметры маршрута (procurementId, lotName,
// version) в контекст запроса, чтобы в тестах вызывать хендлеры напрямую,
// без поднятия chi-роутера.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for name, value := range params {
		routeCtx.URLParams.Add(name, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
