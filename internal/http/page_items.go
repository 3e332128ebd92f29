package http

import (
	"net/http"

	"github.com/goliatone/go-kvcms/internal/commands/pagescmd"
)

func (api *AdminAPI) registerPageItemRoutes(mux *http.ServeMux, prefix string) {
	base := prefix + "/{bu}/page-items/{key}/states"
	api.route(mux, "GET "+base, api.handlePageItemStates)
	api.route(mux, "PUT "+base+"/published", api.handlePageItemPublish)
	api.route(mux, "DELETE "+base+"/draft", api.handlePageItemDiscard)
}

func (api *AdminAPI) handlePageItemStates(w http.ResponseWriter, r *http.Request) {
	if api.pageItems == nil {
		writeUnavailable(w)
		return
	}
	api.writeItemStates(w, r, api.pageItems)
}

func (api *AdminAPI) handlePageItemPublish(w http.ResponseWriter, r *http.Request) {
	if api.pageItems == nil {
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
	if api.pageCommands != nil && api.pageCommands.PublishItem != nil {
		err = api.pageCommands.PublishItem.Execute(ctx, pagescmd.PublishPageItemCommand{
			BusinessUnitKey: bu,
			Key:             key,
			Value:           payload.Value,
			ClearDraft:      clearDraft,
		})
	} else {
		_, err = api.pageItems.Publish(ctx, bu, key, payload.Value, clearDraft)
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.writeItemStates(w, r, api.pageItems)
}

func (api *AdminAPI) handlePageItemDiscard(w http.ResponseWriter, r *http.Request) {
	if api.pageItems == nil {
		writeUnavailable(w)
		return
	}
	ctx := entityContext(r)
	bu, key := r.PathValue("bu"), r.PathValue("key")

	var err error
	if api.pageCommands != nil && api.pageCommands.DiscardItemDraft != nil {
		err = api.pageCommands.DiscardItemDraft.Execute(ctx, pagescmd.DiscardPageItemDraftCommand{
			BusinessUnitKey: bu,
			Key:             key,
		})
	} else {
		_, err = api.pageItems.DiscardDraft(ctx, bu, key)
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	api.writeItemStates(w, r, api.pageItems)
}
