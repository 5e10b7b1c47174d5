package server

import (
	"log"
	"net/http"

	"github.com/nvall/meetscribe/internal/chunkstore"
	"github.com/nvall/meetscribe/internal/session"
)

func Handler(coord *session.Coordinator, store SessionStore, chunks *chunkstore.Store, hooks StatusHooks) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, coord)
	registerAPIRoutes(mux, store, chunks, hooks)

	return mux
}

func Serve(addr string, coord *session.Coordinator, store SessionStore, chunks *chunkstore.Store, hooks StatusHooks) error {
	h := Handler(coord, store, chunks, hooks)

	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, h)
}
