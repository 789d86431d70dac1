package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

type createIndexRequest struct {
	Field string `json:"field"`
}

// HandleCreateIndex handles POST requests to create an index on a field
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	var req createIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Field == "" {
		WriteJSONError(w, http.StatusBadRequest, "field is required")
		return
	}

	if err := h.storage.CreateIndex(collName, req.Field); err != nil {
		log.Printf("ERROR: Create index on '%s.%s': %v", collName, req.Field, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Created index on '%s.%s'", collName, req.Field)
	w.WriteHeader(http.StatusCreated)
}

// HandleDropIndex handles DELETE requests to remove an index
func (h *Handler) HandleDropIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName, field := vars["coll"], vars["field"]

	if err := h.storage.DropIndex(collName, field); err != nil {
		log.Printf("ERROR: Drop index on '%s.%s': %v", collName, field, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Dropped index on '%s.%s'", collName, field)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetIndexes handles GET requests listing the indexed fields of a collection
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	fields, err := h.storage.GetIndexes(collName)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if fields == nil {
		fields = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"indexes": fields})
}

// HandleFindByIndex handles GET requests for an indexed equality lookup
func (h *Handler) HandleFindByIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName, field := vars["coll"], vars["field"]

	value := r.URL.Query().Get("value")
	if value == "" {
		WriteJSONError(w, http.StatusBadRequest, "value query parameter is required")
		return
	}

	docs, err := h.storage.FindByIndex(collName, field, value)
	if err != nil {
		log.Printf("ERROR: Index lookup '%s.%s'='%s': %v", collName, field, value, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Index lookup '%s.%s' matched %d documents", collName, field, len(docs))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}
