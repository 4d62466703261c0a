package swagger_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/okian/slalom/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	Convey("Given a router with the OpenAPI route", t, func() {
		r := mux.NewRouter()
		swagger.Register(r)

		Convey("When fetching the document", func() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			Convey("Then the embedded YAML is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/yaml")
				So(w.Body.String(), ShouldContainSubstring, "/healthz")
				So(w.Body.String(), ShouldContainSubstring, "/stats")
			})
		})

		Convey("When registering on a nil router", func() {
			So(func() { swagger.Register(nil) }, ShouldPanic)
		})
	})
}
