package handlers

import (
	"net/http"

	"github.com/pysugar/twitch-nexus/internal/entries"
	"github.com/pysugar/twitch-nexus/internal/flow"
)

type entryView struct {
	UniqueID string         `json:"unique_id"`
	Title    string         `json:"title"`
	Data     flow.EntryData `json:"data"`
	Options  flow.Options   `json:"options"`
	Imported bool           `json:"imported,omitempty"`
}

// EntriesHandler lists the configured entries.
func EntriesHandler(store *entries.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.All()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		views := make([]entryView, 0, len(all))
		for _, e := range all {
			views = append(views, entryView{
				UniqueID: e.UniqueID,
				Title:    e.Title,
				Data: flow.EntryData{Token: flow.Token{
					AccessToken:  e.AccessToken,
					RefreshToken: e.RefreshToken,
					ExpiresAt:    e.ExpiresAt,
					Scope:        e.Scopes,
				}},
				Options:  flow.Options{Channels: entries.DecodeChannels(e.Channels)},
				Imported: e.Imported,
			})
		}
		writeJSON(w, http.StatusOK, views)
	}
}
