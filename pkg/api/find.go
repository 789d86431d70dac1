package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// findParams are the query-string parameters of the find endpoint:
// selector, sort and projection are JSON documents; skip and limit are
// plain integers.
type findParams struct {
	selector   interface{}
	sortSpec   interface{}
	projection map[string]interface{}
	skip       int
	limit      int
}

func parseFindParams(r *http.Request) (*findParams, error) {
	params := &findParams{limit: -1}
	q := r.URL.Query()

	if raw := q.Get("selector"); raw != "" {
		var selector map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &selector); err != nil {
			return nil, err
		}
		params.selector = selector
	}
	if raw := q.Get("sort"); raw != "" {
		var sortSpec interface{}
		if err := json.Unmarshal([]byte(raw), &sortSpec); err != nil {
			return nil, err
		}
		params.sortSpec = sortSpec
	}
	if raw := q.Get("projection"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params.projection); err != nil {
			return nil, err
		}
	}
	if raw := q.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		params.skip = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		params.limit = n
	}
	return params, nil
}

// HandleFind handles GET requests to query a collection with a full
// selector, sort, projection and pagination
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	params, err := parseFindParams(r)
	if err != nil {
		log.Printf("ERROR: Bad find parameters for collection '%s': %v", collName, err)
		WriteJSONError(w, http.StatusBadRequest, "bad query parameters: "+err.Error())
		return
	}

	docs, err := h.storage.Find(collName, params.selector, params.sortSpec, params.projection, params.skip, params.limit)
	if err != nil {
		log.Printf("ERROR: Find on collection '%s' failed: %v", collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Found %d documents in collection '%s'", len(docs), collName)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

// HandleFindOne handles GET requests for the first document matching a
// selector
func (h *Handler) HandleFindOne(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	params, err := parseFindParams(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "bad query parameters: "+err.Error())
		return
	}

	doc, err := h.storage.FindOne(collName, params.selector)
	if err != nil {
		log.Printf("ERROR: FindOne on collection '%s' failed: %v", collName, err)
		WriteDomainError(w, err)
		return
	}
	if doc == nil {
		WriteJSONError(w, http.StatusNotFound, "no matching document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
