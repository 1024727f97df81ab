package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/store"
	"github.com/novelarc/novelarc/internal/svcctx"
)

// ListGlossaryResponse is the response for listing a novel's glossary.
type ListGlossaryResponse struct {
	Entries []*store.GlossaryEntry `json:"entries"`
}

// GlossaryEntryResponse wraps a single glossary entry.
type GlossaryEntryResponse struct {
	Entry *store.GlossaryEntry `json:"entry"`
}

// CreateGlossaryRequest is the request body for creating a glossary entry.
type CreateGlossaryRequest struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
}

// UpdateGlossaryRequest is the request body for updating an entry's translation.
type UpdateGlossaryRequest struct {
	Translation string `json:"translation"`
}

// BulkDeleteGlossaryRequest is the request body for bulk deletion.
type BulkDeleteGlossaryRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteGlossaryResponse reports how many entries were removed.
type BulkDeleteGlossaryResponse struct {
	Deleted int `json:"deleted"`
}

// ListGlossaryEndpoint handles GET /api/novels/{id}/glossary.
type ListGlossaryEndpoint struct{}

func (e *ListGlossaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/novels/{id}/glossary", e.handler
}

func (e *ListGlossaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List a novel's glossary
//	@Tags			glossary
//	@Produce		json
//	@Param			id	path		string	true	"Novel ID"
//	@Success		200	{object}	ListGlossaryResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/novels/{id}/glossary [get]
func (e *ListGlossaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())

	entries, err := stores.Glossary.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListGlossaryResponse{Entries: entries})
}

func (e *ListGlossaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <novel-id>",
		Short: "List a novel's glossary entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListGlossaryResponse
			if err := client.Get(cmd.Context(), "/api/novels/"+args[0]+"/glossary", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CreateGlossaryEndpoint handles POST /api/novels/{id}/glossary.
type CreateGlossaryEndpoint struct{}

func (e *CreateGlossaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/novels/{id}/glossary", e.handler
}

func (e *CreateGlossaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create or refresh a glossary entry
//	@Description	Upserts by (novel, term); an existing term gets its translation refreshed
//	@Tags			glossary
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Novel ID"
//	@Param			body	body		CreateGlossaryRequest	true	"Entry"
//	@Success		201		{object}	ListGlossaryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/novels/{id}/glossary [post]
func (e *CreateGlossaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateGlossaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Term == "" || req.Translation == "" {
		writeError(w, http.StatusBadRequest, "term and translation are required")
		return
	}

	stores := svcctx.StoresFrom(r.Context())
	novelID := r.PathValue("id")

	err := stores.Glossary.Upsert(r.Context(), &store.GlossaryEntry{
		NovelID:     novelID,
		Term:        req.Term,
		Translation: req.Translation,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries, err := stores.Glossary.List(r.Context(), novelID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ListGlossaryResponse{Entries: entries})
}

func (e *CreateGlossaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var term, translation string
	cmd := &cobra.Command{
		Use:   "add <novel-id>",
		Short: "Add a glossary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := CreateGlossaryRequest{Term: term, Translation: translation}
			var resp ListGlossaryResponse
			if err := client.Post(cmd.Context(), "/api/novels/"+args[0]+"/glossary", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&term, "term", "", "Source term")
	cmd.Flags().StringVar(&translation, "translation", "", "Target translation")
	_ = cmd.MarkFlagRequired("term")
	_ = cmd.MarkFlagRequired("translation")
	return cmd
}

// UpdateGlossaryEndpoint handles PATCH /api/glossary/{id}.
type UpdateGlossaryEndpoint struct{}

func (e *UpdateGlossaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/glossary/{id}", e.handler
}

func (e *UpdateGlossaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a glossary entry's translation
//	@Tags			glossary
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Entry ID"
//	@Param			body	body		UpdateGlossaryRequest	true	"New translation"
//	@Success		200		{object}	GlossaryEntryResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/glossary/{id} [patch]
func (e *UpdateGlossaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req UpdateGlossaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Translation == "" {
		writeError(w, http.StatusBadRequest, "translation is required")
		return
	}

	stores := svcctx.StoresFrom(r.Context())
	id := r.PathValue("id")

	if err := stores.Glossary.Update(r.Context(), id, req.Translation); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "glossary entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry, err := stores.Glossary.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GlossaryEntryResponse{Entry: entry})
}

func (e *UpdateGlossaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var translation string
	cmd := &cobra.Command{
		Use:   "update <entry-id>",
		Short: "Update a glossary entry's translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp GlossaryEntryResponse
			err := client.Patch(cmd.Context(), "/api/glossary/"+args[0], UpdateGlossaryRequest{Translation: translation}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
	cmd.Flags().StringVar(&translation, "translation", "", "New translation")
	_ = cmd.MarkFlagRequired("translation")
	return cmd
}

// DeleteGlossaryEndpoint handles DELETE /api/glossary/{id}.
type DeleteGlossaryEndpoint struct{}

func (e *DeleteGlossaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/glossary/{id}", e.handler
}

func (e *DeleteGlossaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a glossary entry
//	@Tags			glossary
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/glossary/{id} [delete]
func (e *DeleteGlossaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())

	if err := stores.Glossary.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "glossary entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteGlossaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete a glossary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return client.Delete(cmd.Context(), "/api/glossary/"+args[0])
		},
	}
}

// BulkDeleteGlossaryEndpoint handles POST /api/glossary/delete.
type BulkDeleteGlossaryEndpoint struct{}

func (e *BulkDeleteGlossaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/glossary/delete", e.handler
}

func (e *BulkDeleteGlossaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Bulk delete glossary entries
//	@Description	Deletes every entry in the id list; missing ids are skipped
//	@Tags			glossary
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BulkDeleteGlossaryRequest	true	"Entry IDs"
//	@Success		200		{object}	BulkDeleteGlossaryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/glossary/delete [post]
func (e *BulkDeleteGlossaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteGlossaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	stores := svcctx.StoresFrom(r.Context())

	deleted, err := stores.Glossary.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BulkDeleteGlossaryResponse{Deleted: deleted})
}

func (e *BulkDeleteGlossaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-many <entry-id>...",
		Short: "Delete multiple glossary entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BulkDeleteGlossaryResponse
			if err := client.Post(cmd.Context(), "/api/glossary/delete", BulkDeleteGlossaryRequest{IDs: args}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
