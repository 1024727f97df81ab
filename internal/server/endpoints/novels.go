package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/store"
	"github.com/novelarc/novelarc/internal/svcctx"
)

// ListNovelsResponse is the response for listing novels.
type ListNovelsResponse struct {
	Novels []*store.Novel `json:"novels"`
}

// NovelResponse wraps a single novel.
type NovelResponse struct {
	Novel *store.Novel `json:"novel"`
}

// ListChaptersResponse is the response for listing a novel's chapters.
type ListChaptersResponse struct {
	Chapters []*store.Chapter `json:"chapters"`
}

// ChapterContentResponse carries a chapter with its text.
type ChapterContentResponse struct {
	Chapter    *store.Chapter `json:"chapter"`
	Original   string         `json:"original"`
	Translated string         `json:"translated"`
}

// ListNovelsEndpoint handles GET /api/novels.
type ListNovelsEndpoint struct{}

func (e *ListNovelsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/novels", e.handler
}

func (e *ListNovelsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List novels
//	@Description	List all hosted novels
//	@Tags			novels
//	@Produce		json
//	@Success		200	{object}	ListNovelsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/novels [get]
func (e *ListNovelsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())

	novels, err := stores.Novels.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListNovelsResponse{Novels: novels})
}

func (e *ListNovelsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List novels",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListNovelsResponse
			if err := client.Get(cmd.Context(), "/api/novels", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetNovelEndpoint handles GET /api/novels/{id}.
type GetNovelEndpoint struct{}

func (e *GetNovelEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/novels/{id}", e.handler
}

func (e *GetNovelEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a novel
//	@Tags			novels
//	@Produce		json
//	@Param			id	path		string	true	"Novel ID"
//	@Success		200	{object}	NovelResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/novels/{id} [get]
func (e *GetNovelEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())

	novel, err := stores.Novels.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "novel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NovelResponse{Novel: novel})
}

func (e *GetNovelEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a novel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp NovelResponse
			if err := client.Get(cmd.Context(), "/api/novels/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp.Novel)
		},
	}
}

// DeleteNovelEndpoint handles DELETE /api/novels/{id}.
type DeleteNovelEndpoint struct{}

func (e *DeleteNovelEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/novels/{id}", e.handler
}

func (e *DeleteNovelEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a novel
//	@Tags			novels
//	@Produce		json
//	@Param			id	path	string	true	"Novel ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/novels/{id} [delete]
func (e *DeleteNovelEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())

	if err := stores.Novels.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "novel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteNovelEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a novel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return client.Delete(cmd.Context(), "/api/novels/"+args[0])
		},
	}
}

// ListChaptersEndpoint handles GET /api/novels/{id}/chapters.
type ListChaptersEndpoint struct{}

func (e *ListChaptersEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/novels/{id}/chapters", e.handler
}

func (e *ListChaptersEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List a novel's chapters
//	@Description	Chapter metadata in ascending chapter order; text is fetched per chapter
//	@Tags			novels
//	@Produce		json
//	@Param			id	path		string	true	"Novel ID"
//	@Success		200	{object}	ListChaptersResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/novels/{id}/chapters [get]
func (e *ListChaptersEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())

	chapters, err := stores.Chapters.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListChaptersResponse{Chapters: chapters})
}

func (e *ListChaptersEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <novel-id>",
		Short: "List a novel's chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListChaptersResponse
			if err := client.Get(cmd.Context(), "/api/novels/"+args[0]+"/chapters", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetChapterEndpoint handles GET /api/novels/{id}/chapters/{number}.
type GetChapterEndpoint struct{}

func (e *GetChapterEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/novels/{id}/chapters/{number}", e.handler
}

func (e *GetChapterEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a chapter with its text
//	@Description	Returns chapter metadata plus original and translated content; missing content comes back empty
//	@Tags			novels
//	@Produce		json
//	@Param			id		path		string	true	"Novel ID"
//	@Param			number	path		int		true	"Chapter number"
//	@Success		200		{object}	ChapterContentResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/novels/{id}/chapters/{number} [get]
func (e *GetChapterEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stores := svcctx.StoresFrom(r.Context())
	novelID := r.PathValue("id")

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chapter number")
		return
	}

	chapter, err := stores.Chapters.Get(r.Context(), novelID, number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chapter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	original, err := stores.Content.GetOriginal(r.Context(), novelID, number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	translated, err := stores.Content.GetTranslated(r.Context(), novelID, number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChapterContentResponse{
		Chapter:    chapter,
		Original:   original,
		Translated: translated,
	})
}

func (e *GetChapterEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "chapter <novel-id> <number>",
		Short: "Get a chapter with its text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ChapterContentResponse
			path := "/api/novels/" + args[0] + "/chapters/" + args[1]
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
