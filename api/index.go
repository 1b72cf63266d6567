package handler

import (
	"net/http"

	pghttp "github.com/awantoch/promptgate/http"
)

// Handler is the entry point for Vercel serverless functions.
func Handler(w http.ResponseWriter, r *http.Request) {
	pghttp.ServerlessHandler(w, r)
}
