// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telekom/tracepath/internal/logger"
	"github.com/telekom/tracepath/pkg/api"
)

const urlParamCheckName = "checkName"

func (w *Watcher) routes() []api.Route {
	registry := w.metrics.GetRegistry()
	return []api.Route{
		{Path: "/metrics", Method: api.MethodAny, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}).ServeHTTP},
		{Path: "/openapi", Method: http.MethodGet, Handler: w.handleOpenAPI},
		{Path: "/v1/results", Method: http.MethodGet, Handler: w.handleResults},
		{Path: "/v1/results/{" + urlParamCheckName + "}", Method: http.MethodGet, Handler: w.handleCheckResult},
	}
}

func (w *Watcher) handleResults(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, r, http.StatusOK, w.db.List())
}

func (w *Watcher) handleCheckResult(rw http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, urlParamCheckName)
	res, ok := w.db.Get(name)
	if !ok {
		http.Error(rw, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	writeJSON(rw, r, http.StatusOK, res)
}

func (w *Watcher) handleOpenAPI(rw http.ResponseWriter, r *http.Request) {
	doc, err := w.openAPI()
	if err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to create openapi document", "error", err)
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(rw, r, http.StatusOK, doc)
}

// openAPI describes the result endpoints with the schema of the check.
func (w *Watcher) openAPI() (*openapi3.T, error) {
	schema, err := w.check.Schema()
	if err != nil {
		return nil, api.ErrCreateOpenapiSchema{Name: w.check.Name(), Err: err}
	}

	ok := "Latest result of the " + w.check.Name() + " check"
	op := openapi3.NewOperation()
	op.Summary = ok
	op.Parameters = openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter(urlParamCheckName).WithSchema(openapi3.NewStringSchema())},
	}
	op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription(ok).WithJSONSchemaRef(schema))
	op.AddResponse(http.StatusNotFound, openapi3.NewResponse().WithDescription("No result yet"))

	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:   "tracepath",
			Version: w.version,
		},
		Paths: openapi3.NewPaths(),
	}
	doc.Paths.Set("/v1/results/{"+urlParamCheckName+"}", &openapi3.PathItem{Get: op})
	return doc, nil
}

func writeJSON(rw http.ResponseWriter, r *http.Request, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}
