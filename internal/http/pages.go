package http

import (
	"net/http"

	"github.com/goliatone/go-kvcms/internal/commands/pagescmd"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/pages"
)

type componentPayload struct {
	ComponentType string `json:"componentType"`
	RowID         string `json:"rowId"`
	CellID        string `json:"cellId"`
}

type spanPayload struct {
	Updates pages.SpanUpdate `json:"updates"`
}

func (api *AdminAPI) registerPageRoutes(mux *http.ServeMux, prefix string) {
	base := prefix + "/{bu}/pages"
	api.route(mux, "GET "+base, api.handlePagesList)
	api.route(mux, "POST "+base, api.handlePagesCreate)
	api.route(mux, "GET "+base+"/{key}", api.handlePageGet)
	api.route(mux, "PUT "+base+"/{key}", api.handlePageUpdate)
	api.route(mux, "DELETE "+base+"/{key}", api.handlePageDelete)

	api.route(mux, "GET "+base+"/{key}/states", api.handlePageStates)
	api.route(mux, "PUT "+base+"/{key}/states/published", api.handlePagePublish)
	api.route(mux, "DELETE "+base+"/{key}/states/draft", api.handlePageDiscard)
	api.route(mux, "GET "+base+"/{key}/versions", api.handlePageVersions)

	api.route(mux, "POST "+base+"/{key}/rows", api.handlePageAddRow)
	api.route(mux, "DELETE "+base+"/{key}/rows/{rowId}", api.handlePageRemoveRow)
	api.route(mux, "PUT "+base+"/{key}/rows/{rowId}/cells/{cellId}", api.handlePageCellSpan)
	api.route(mux, "POST "+base+"/{key}/components", api.handlePageAddComponent)
	api.route(mux, "PUT "+base+"/{key}/components/{contentItemKey}", api.handlePageUpdateComponent)
	api.route(mux, "DELETE "+base+"/{key}/components/{contentItemKey}", api.handlePageRemoveComponent)

	api.route(mux, "GET "+prefix+"/{bu}/preview/pages/{key}", api.handlePagePreview)
	api.route(mux, "GET "+prefix+"/{bu}/published/pages/{key}", api.handlePagePublished)
	api.route(mux, "POST "+prefix+"/{bu}/preview/pages/query", api.pageQuery(content.PreviewSlots))
	api.route(mux, "POST "+prefix+"/{bu}/published/pages/query", api.pageQuery(content.PublishedSlots))
}

func (api *AdminAPI) handlePagesList(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	list, err := api.pages.List(r.Context(), r.PathValue("bu"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *AdminAPI) handlePagesCreate(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.pages.Create(r.Context(), r.PathValue("bu"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (api *AdminAPI) handlePageGet(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	page, err := api.pages.GetWithStates(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if page == nil {
		writeNotFound(w, "Page not found")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *AdminAPI) handlePageUpdate(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.pages.Update(r.Context(), r.PathValue("bu"), r.PathValue("key"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handlePageDelete(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	if err := api.pages.Delete(r.Context(), r.PathValue("bu"), r.PathValue("key")); err != nil {
		api.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) handlePageStates(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	api.writePageStates(w, r)
}

func (api *AdminAPI) writePageStates(w http.ResponseWriter, r *http.Request) {
	record, err := api.pages.States(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handlePagePublish(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	ctx := entityContext(r)
	bu, key := r.PathValue("bu"), r.PathValue("key")
	clearDraft := parseBoolQuery(r.URL.Query().Get("clearDraft"), false)

	var err error
	if api.pageCommands != nil && api.pageCommands.Publish != nil {
		err = api.pageCommands.Publish.Execute(ctx, pagescmd.PublishPageCommand{
			BusinessUnitKey: bu,
			Key:             key,
			ClearDraft:      clearDraft,
		})
	} else {
		_, err = api.pages.Publish(ctx, bu, key, clearDraft)
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.writePageStates(w, r)
}

func (api *AdminAPI) handlePageDiscard(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	ctx := entityContext(r)
	bu, key := r.PathValue("bu"), r.PathValue("key")

	var err error
	if api.pageCommands != nil && api.pageCommands.DiscardDraft != nil {
		err = api.pageCommands.DiscardDraft.Execute(ctx, pagescmd.DiscardPageDraftCommand{
			BusinessUnitKey: bu,
			Key:             key,
		})
	} else {
		_, err = api.pages.DiscardDraft(ctx, bu, key)
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.writePageStates(w, r)
}

func (api *AdminAPI) handlePageVersions(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	history, err := api.pages.Versions(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (api *AdminAPI) handlePageAddRow(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	obj, err := api.pages.AddRow(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (api *AdminAPI) handlePageRemoveRow(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	obj, err := api.pages.RemoveRow(r.Context(), r.PathValue("bu"), r.PathValue("key"), r.PathValue("rowId"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handlePageCellSpan(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	var payload spanPayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.pages.UpdateCellSpan(r.Context(), r.PathValue("bu"), r.PathValue("key"), r.PathValue("rowId"), r.PathValue("cellId"), payload.Updates)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handlePageAddComponent(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	var payload componentPayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.pages.AddComponent(r.Context(), r.PathValue("bu"), r.PathValue("key"), payload.ComponentType, payload.RowID, payload.CellID)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (api *AdminAPI) handlePageUpdateComponent(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	var payload updatesPayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.pages.UpdateComponent(r.Context(), r.PathValue("bu"), r.PathValue("key"), r.PathValue("contentItemKey"), payload.Updates)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handlePageRemoveComponent(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	obj, err := api.pages.RemoveComponent(r.Context(), r.PathValue("bu"), r.PathValue("key"), r.PathValue("contentItemKey"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handlePagePreview(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	page, err := api.pages.Preview(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *AdminAPI) handlePagePublished(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	page, err := api.pages.Published(r.Context(), r.PathValue("bu"), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if page == nil {
		writeNotFound(w, "Page not found")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *AdminAPI) pageQuery(slots []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.pages == nil {
			writeUnavailable(w)
			return
		}
		var payload queryPayload
		if err := decodeJSON(r, &payload); err != nil {
			api.fail(w, r, err)
			return
		}
		page, err := api.pages.Query(r.Context(), r.PathValue("bu"), payload.Query, slots)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		if page == nil {
			writeNotFound(w, "Page not found")
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}
