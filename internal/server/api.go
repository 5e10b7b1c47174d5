package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nvall/meetscribe/internal/chunkstore"
	"github.com/nvall/meetscribe/internal/persist"
)

type SessionStore interface {
	GetSessionsByDate(date string) ([]persist.Record, error)
	GetSession(id string) (persist.Record, error)
	GetDates() ([]string, error)
}

type StatusHooks struct {
	ActiveSessions func() int
	Warnings       func() []string
}

func registerAPIRoutes(mux *http.ServeMux, store SessionStore, chunks *chunkstore.Store, hooks StatusHooks) {
	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}

		sessions, err := store.GetSessionsByDate(date)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list sessions: %v", err))
			return
		}
		if sessions == nil {
			sessions = []persist.Record{}
		}

		writeJSON(w, http.StatusOK, sessions)
	})

	mux.HandleFunc("GET /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if !chunkstore.ValidSessionID(sessionID) {
			writeJSONError(w, http.StatusForbidden, "invalid session id")
			return
		}

		rec, err := store.GetSession(sessionID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, sql.ErrNoRows) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get session: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, rec)
	})

	mux.HandleFunc("GET /api/dates", func(w http.ResponseWriter, r *http.Request) {
		dates, err := store.GetDates()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get dates: %v", err))
			return
		}
		if dates == nil {
			dates = []string{}
		}
		writeJSON(w, http.StatusOK, dates)
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		active := 0
		if hooks.ActiveSessions != nil {
			active = hooks.ActiveSessions()
		}
		var warnings []string
		if hooks.Warnings != nil {
			warnings = hooks.Warnings()
		}
		if warnings == nil {
			warnings = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"active_sessions": active, "warnings": warnings})
	})

	mux.HandleFunc("GET /recordings/{id}/transcript.txt", func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if !chunkstore.ValidSessionID(sessionID) {
			writeJSONError(w, http.StatusForbidden, "invalid session id")
			return
		}

		path := filepath.Join(chunks.SessionDir(sessionID), "transcript.txt")
		f, err := os.Open(path)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "transcript not found")
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("stat transcript: %v", err))
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sessionID+"-transcript.txt"))
		http.ServeContent(w, r, "transcript.txt", info.ModTime(), f)
	})

	// MediaRecorder chunks concatenate back into one playable stream.
	mux.HandleFunc("GET /recordings/{id}/audio", func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if !chunkstore.ValidSessionID(sessionID) {
			writeJSONError(w, http.StatusForbidden, "invalid session id")
			return
		}

		handles, err := chunks.ListOrdered(sessionID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list chunks: %v", err))
			return
		}
		if len(handles) == 0 {
			writeJSONError(w, http.StatusNotFound, "audio not available")
			return
		}

		w.Header().Set("Content-Type", "audio/webm")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sessionID+".webm"))
		for _, h := range handles {
			data, err := chunks.ReadAll(h)
			if err != nil {
				// Headers are out; a short body is the best we can do.
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
