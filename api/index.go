package handler

import (
	"net/http"

	"serviceloop-backend/bootstrap"
	"serviceloop-backend/internal/interfaces/router"
)

var app http.Handler

func init() {
	fiberApp, err := bootstrap.New()
	if err != nil {
		panic("app create: " + err.Error())
	}
	app = router.Handler(fiberApp)
}

// Handler is the Vercel serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	app.ServeHTTP(w, r)
}
