package http

import (
	"context"
	"net/http"

	"github.com/goliatone/go-kvcms/internal/commands/contentcmd"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/logging"
)

func (api *AdminAPI) registerContentItemRoutes(mux *http.ServeMux, prefix string) {
	base := prefix + "/{bu}/content-items"
	api.route(mux, "GET "+base, api.handleContentItemsList)
	api.route(mux, "POST "+base, api.handleContentItemsCreate)
	api.route(mux, "GET "+base+"/{key}", api.handleContentItemGet)
	api.route(mux, "PUT "+base+"/{key}", api.handleContentItemUpdate)
	api.route(mux, "DELETE "+base+"/{key}", api.handleContentItemDelete)
	api.route(mux, "GET "+base+"/{key}/{child}", api.handleContentItemChild)
	api.route(mux, "PUT "+base+"/{key}/states/published", api.handleContentItemPublish)
	api.route(mux, "DELETE "+base+"/{key}/states/draft", api.handleContentItemDiscard)

	api.route(mux, "GET "+prefix+"/{bu}/preview/content-items/{key}", api.handleContentItemPreview)
	api.route(mux, "GET "+prefix+"/{bu}/published/content-items/{key}", api.handleContentItemPublished)
	api.route(mux, "POST "+prefix+"/{bu}/preview/content-items/query", api.contentItemQuery(content.PreviewSlots))
	api.route(mux, "POST "+prefix+"/{bu}/published/content-items/query", api.contentItemQuery(content.PublishedSlots))
}

// entityContext scopes request logging to the addressed entity.
func entityContext(r *http.Request) context.Context {
	return logging.ContextWithEntity(r.Context(), r.PathValue("bu"), r.PathValue("key"))
}

func (api *AdminAPI) handleContentItemsList(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	items, err := api.items.List(r.Context(), r.PathValue("bu"), "")
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (api *AdminAPI) handleContentItemsCreate(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.items.Create(r.Context(), r.PathValue("bu"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (api *AdminAPI) handleContentItemGet(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	value, err := api.items.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (api *AdminAPI) handleContentItemUpdate(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.items.Update(r.Context(), r.PathValue("bu"), r.PathValue("key"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handleContentItemDelete(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	if _, err := api.items.Delete(r.Context(), r.PathValue("bu"), r.PathValue("key")); err != nil {
		api.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleContentItemChild serves the two-segment reads below an item:
// content-type/{type} listings, states and versions.
func (api *AdminAPI) handleContentItemChild(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	bu, key, child := r.PathValue("bu"), r.PathValue("key"), r.PathValue("child")
	if key == "content-type" {
		items, err := api.items.ListByType(r.Context(), bu, child)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}
	switch child {
	case "states":
		record, err := api.items.States(r.Context(), bu, key)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case "versions":
		history, err := api.items.Versions(r.Context(), bu, key)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	default:
		writeNotFound(w, "route not found")
	}
}

func (api *AdminAPI) handleContentItemPublish(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	ctx := entityContext(r)
	bu, key := r.PathValue("bu"), r.PathValue("key")
	clearDraft := parseBoolQuery(r.URL.Query().Get("clearDraft"), false)

	var err error
	if api.contentCommands != nil && api.contentCommands.Publish != nil {
		err = api.contentCommands.Publish.Execute(ctx, contentcmd.PublishContentCommand{
			BusinessUnitKey: bu,
			Key:             key,
			Value:           payload.Value,
			ClearDraft:      clearDraft,
		})
	} else {
		_, err = api.items.Publish(ctx, bu, key, payload.Value, clearDraft)
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.writeItemStates(w, r, api.items)
}

func (api *AdminAPI) handleContentItemDiscard(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	ctx := entityContext(r)
	bu, key := r.PathValue("bu"), r.PathValue("key")

	var err error
	if api.contentCommands != nil && api.contentCommands.DiscardDraft != nil {
		err = api.contentCommands.DiscardDraft.Execute(ctx, contentcmd.DiscardDraftCommand{
			BusinessUnitKey: bu,
			Key:             key,
		})
	} else {
		_, err = api.items.DiscardDraft(ctx, bu, key)
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.writeItemStates(w, r, api.items)
}

func (api *AdminAPI) writeItemStates(w http.ResponseWriter, r *http.Request, svc content.Service) {
	record, err := svc.States(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleContentItemPreview(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	value, err := api.items.Preview(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (api *AdminAPI) handleContentItemPublished(w http.ResponseWriter, r *http.Request) {
	if api.items == nil {
		writeUnavailable(w)
		return
	}
	value, err := api.items.Published(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if value == nil {
		writeNotFound(w, "Content item not found")
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (api *AdminAPI) contentItemQuery(slots []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.items == nil {
			writeUnavailable(w)
			return
		}
		var payload queryPayload
		if err := decodeJSON(r, &payload); err != nil {
			api.fail(w, r, err)
			return
		}
		value, err := api.items.Query(r.Context(), r.PathValue("bu"), payload.Query, slots)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		if value == nil {
			writeNotFound(w, "Content item not found")
			return
		}
		writeJSON(w, http.StatusOK, value)
	}
}
