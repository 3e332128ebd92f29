package http

import "net/http"

type paramsPayload struct {
	Params map[string]any `json:"params"`
}

func (api *AdminAPI) registerDatasourceRoutes(mux *http.ServeMux, prefix string) {
	base := prefix + "/datasource"
	api.route(mux, "GET "+base, api.handleDatasourcesList)
	api.route(mux, "GET "+base+"/{key}", api.handleDatasourceGet)
	api.route(mux, "POST "+base+"/{key}", api.handleDatasourceCreate)
	api.route(mux, "PUT "+base+"/{key}", api.handleDatasourceUpdate)
	api.route(mux, "DELETE "+base+"/{key}", api.handleDatasourceDelete)
	api.route(mux, "POST "+base+"/{key}/test", api.handleDatasourceTest)
}

func (api *AdminAPI) handleDatasourcesList(w http.ResponseWriter, r *http.Request) {
	if api.datasources == nil {
		writeUnavailable(w)
		return
	}
	list, err := api.datasources.List(r.Context())
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *AdminAPI) handleDatasourceGet(w http.ResponseWriter, r *http.Request) {
	if api.datasources == nil {
		writeUnavailable(w)
		return
	}
	obj, err := api.datasources.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handleDatasourceCreate(w http.ResponseWriter, r *http.Request) {
	if api.datasources == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.datasources.Create(r.Context(), r.PathValue("key"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (api *AdminAPI) handleDatasourceUpdate(w http.ResponseWriter, r *http.Request) {
	if api.datasources == nil {
		writeUnavailable(w)
		return
	}
	var payload valuePayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	obj, err := api.datasources.Update(r.Context(), r.PathValue("key"), payload.Value)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (api *AdminAPI) handleDatasourceDelete(w http.ResponseWriter, r *http.Request) {
	if api.datasources == nil {
		writeUnavailable(w)
		return
	}
	if err := api.datasources.Delete(r.Context(), r.PathValue("key")); err != nil {
		api.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) handleDatasourceTest(w http.ResponseWriter, r *http.Request) {
	if api.datasources == nil {
		writeUnavailable(w)
		return
	}
	var payload paramsPayload
	if err := decodeJSON(r, &payload); err != nil {
		api.fail(w, r, err)
		return
	}
	result, err := api.datasources.Test(r.Context(), r.PathValue("key"), payload.Params)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
