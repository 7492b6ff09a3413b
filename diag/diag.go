package diag

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/log"
)

const defaultCount = 25

// NewServeMux returns an *http.ServeMux that serves the stored coverage runs as JSON at /api:
//
//	GET /api/runs?class=NAME&count=N   runs, newest first
//	GET /api/runs/{id}?method=NAME     distinct covered elements of a run
//	GET /api/stats                     stats about the stored runs
func NewServeMux(b backend.Backend, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		// Only support GET requests
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		relativeURL := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
		segments := strings.Split(relativeURL, "/")

		switch {
		// /api/stats
		case len(segments) == 1 && segments[0] == "stats":
			s, err := b.GetStats(r.Context())
			if err != nil {
				logger.Error("getting stats", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			writeJSON(w, logger, s)

		// /api/runs
		case len(segments) == 1 && segments[0] == "runs":
			query := r.URL.Query()

			count := defaultCount
			if countStr := query.Get("count"); countStr != "" {
				var err error
				count, err = strconv.Atoi(countStr)
				if err != nil || count <= 0 {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
			}

			runs, err := b.ListClassRuns(r.Context(), query.Get("class"))
			if err != nil {
				logger.Error("listing runs", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			if len(runs) > count {
				runs = runs[:count]
			}

			writeJSON(w, logger, runs)

		// /api/runs/{id}
		case len(segments) == 2 && segments[0] == "runs":
			run, err := b.GetClassRun(r.Context(), segments[1])
			if err != nil {
				if errors.Is(err, backend.ErrRunNotFound) {
					w.WriteHeader(http.StatusNotFound)
					return
				}

				logger.Error("getting run", log.RunIDKey, segments[1], "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			report, err := NewRunReport(run, r.URL.Query().Get("method"))
			if err != nil {
				if errors.Is(err, coverage.ErrNotFound) {
					w.WriteHeader(http.StatusNotFound)
					return
				}

				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			writeJSON(w, logger, report)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", "error", err)
	}
}
