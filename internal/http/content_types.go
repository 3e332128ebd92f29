package http

import "net/http"

func (api *AdminAPI) registerContentTypeRoutes(mux *http.ServeMux, prefix string) {
	base := prefix + "/content-type"
	api.route(mux, "GET "+base, api.handleContentTypesList)
	api.route(mux, "POST "+base, api.handleContentTypesCreate)
	api.route(mux, "GET "+base+"/{key}", api.handleContentTypeGet)
	api.route(mux, "PUT "+base+"/{key}", api.handleContentTypeUpdate)
	api.route(mux, "DELETE "+base+"/{key}", api.handleContentTypeDelete)
}

func (api *AdminAPI) handleContentTypesList(w http.ResponseWriter, r *http.Request) {
	if api.types == nil {
		writeUnavailable(w)
		return
	}
	types, err := api.types.List(r.Context())
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (api *AdminAPI) handleContentTypesCreate(w http.ResponseWriter, r *http.Request) {
	if api.types == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.types.Create(r.Context(), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (api *AdminAPI) handleContentTypeGet(w http.ResponseWriter, r *http.Request) {
	if api.types == nil {
		writeUnavailable(w)
		return
	}
	value, err := api.types.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (api *AdminAPI) handleContentTypeUpdate(w http.ResponseWriter, r *http.Request) {
	if api.types == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.types.Update(r.Context(), r.PathValue("key"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handleContentTypeDelete(w http.ResponseWriter, r *http.Request) {
	if api.types == nil {
		writeUnavailable(w)
		return
	}
	if err := api.types.Delete(r.Context(), r.PathValue("key")); err != nil {
		api.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
