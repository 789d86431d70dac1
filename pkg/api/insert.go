package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// HandleInsert handles POST requests to add a document to a collection
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		log.Printf("ERROR: Invalid JSON body for insert into '%s': %v", collName, err)
		WriteJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.storage.Insert(collName, doc)
	if err != nil {
		log.Printf("ERROR: Failed to insert into '%s': %v", collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Inserted document %s into collection '%s'", id, collName)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"_id": id})
}
