package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/slotdb/database"
	"github.com/fulldump/slotdb/service"
)

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		db := database.NewDatabase(&database.Config{})

		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), database.StatusOperating)

		s := service.NewService(db)

		b := Build(s, "test", "", "")
		b.WithInterceptors(
			InterceptorUnavailable(db),
			RecoverFromPanic,
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})

		a.Alternative("Release", func(a *biff.A) {
			resp := api.Request("GET", "/release").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJson(), "test")
		})

		a.Alternative("OpenAPI", func(a *biff.A) {
			resp := api.Request("GET", "/openapi.json").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body, _ := resp.BodyJson().(map[string]any)
			info, _ := body["info"].(map[string]any)
			biff.AssertEqual(info["title"], "SlotDB")
		})

		a.Alternative("Closing database", func(a *biff.A) {
			biff.AssertNil(db.Stop())

			resp := api.Request("GET", "/v1/collections").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
		})
	})
}

func TestUnavailableWhileOpening(t *testing.T) {

	db := database.NewDatabase(&database.Config{})

	b := Build(service.NewService(db), "test", "", "")
	b.WithInterceptors(
		InterceptorUnavailable(db),
		PrettyErrorInterceptor,
	)

	resp := apitest.NewWithHandler(b).Request("GET", "/v1/collections").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
	biff.AssertEqualJson(resp.BodyJson(), map[string]any{
		"error": map[string]any{
			"message":     "temporary unavailable: opening",
			"description": "database is not operating",
		},
	})
}
