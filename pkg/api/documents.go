package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// HandleGetByID handles GET requests for a specific document
func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName, docID := vars["coll"], vars["id"]

	doc, err := h.storage.GetByID(collName, docID)
	if err != nil {
		log.Printf("ERROR: Get document '%s' from collection '%s': %v", docID, collName, err)
		WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// HandleUpdateByID handles PATCH requests for partial document updates
func (h *Handler) HandleUpdateByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName, docID := vars["coll"], vars["id"]

	var updates domain.Document
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.storage.UpdateByID(collName, docID, updates); err != nil {
		log.Printf("ERROR: Update document '%s' in collection '%s': %v", docID, collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Updated document '%s' in collection '%s'", docID, collName)
	w.WriteHeader(http.StatusNoContent)
}

// HandleReplaceByID handles PUT requests for complete document replacement
func (h *Handler) HandleReplaceByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName, docID := vars["coll"], vars["id"]

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.storage.ReplaceByID(collName, docID, doc); err != nil {
		log.Printf("ERROR: Replace document '%s' in collection '%s': %v", docID, collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Replaced document '%s' in collection '%s'", docID, collName)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteByID handles DELETE requests for a specific document
func (h *Handler) HandleDeleteByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName, docID := vars["coll"], vars["id"]

	if err := h.storage.DeleteByID(collName, docID); err != nil {
		log.Printf("ERROR: Delete document '%s' from collection '%s': %v", docID, collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Deleted document '%s' from collection '%s'", docID, collName)
	w.WriteHeader(http.StatusNoContent)
}
