// Package swagger serves the OpenAPI description of the ops API.
package swagger

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register attaches the OpenAPI document route to r.
//
//	GET /openapi.yaml -> embedded OpenAPI document
func Register(r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	}).Methods(http.MethodGet)
}
