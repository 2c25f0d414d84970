package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/slotdb/api/apicollectionv1"
	"github.com/fulldump/slotdb/layout"
	"github.com/fulldump/slotdb/memory"
	"github.com/fulldump/slotdb/service"
)

func Build(s service.Servicer, version string, apiKey, apiSecret string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		Authenticate(apiKey, apiSecret),
	)

	apicollectionv1.BuildV1Collection(v1, s).
		WithInterceptors(
			injectServicer(s),
		)

	v1.Resource("/memory").
		WithActions(box.Get(func() memory.Stats {
			return s.Memory()
		}).WithName("getMemory"))

	v1.Resource("/presets").
		WithActions(box.Get(func() map[string]*layout.Layout {
			result := map[string]*layout.Layout{}
			for _, name := range layout.Presets() {
				result[name], _ = layout.Preset(name)
			}
			return result
		}).WithName("listPresets"))

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check the documentation",
			}
		}).WithName("notImplemented"))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}).WithName("release"))

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "SlotDB"
	spec.Info.Description = "Named dense arrays of fixed-size records with stable handles."
	spec.Info.Contact = &boxopenapi.Contact{
		Url: "https://github.com/fulldump/slotdb/issues/new",
	}
	b.Handle("GET", "/openapi.json", func(r *http.Request) any {

		spec.Servers = []boxopenapi.Server{
			{
				Url: "https://" + r.Host,
			},
			{
				Url: "http://" + r.Host,
			},
		}

		return spec
	})

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apicollectionv1.SetServicer(ctx, s))
		}
	}
}
