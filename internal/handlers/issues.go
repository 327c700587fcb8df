package handlers

import (
	"net/http"

	"github.com/pysugar/twitch-nexus/internal/issues"
	"github.com/pysugar/twitch-nexus/internal/version"
)

// IssuesHandler lists the recorded diagnostic issues.
func IssuesHandler(reg *issues.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := reg.All()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

// VersionHandler reports build information.
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version.Version,
			"commit":     version.Commit,
			"build_time": version.BuildTime,
		})
	}
}
