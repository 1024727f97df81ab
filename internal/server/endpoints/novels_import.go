package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/ingest"
	"github.com/novelarc/novelarc/internal/svcctx"
)

// maxImportSize caps uploaded PDFs at 200MB.
const maxImportSize = 200 << 20

// ImportNovelResponse is the response for a novel import.
type ImportNovelResponse struct {
	NovelID      string `json:"novel_id"`
	Title        string `json:"title"`
	PageCount    int    `json:"page_count"`
	ChapterCount int    `json:"chapter_count"`
}

// ImportNovelEndpoint handles POST /api/novels/import.
// The PDF arrives as a multipart upload; metadata rides along as form fields.
type ImportNovelEndpoint struct{}

func (e *ImportNovelEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/novels/import", e.handler
}

func (e *ImportNovelEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Import a novel from a PDF
//	@Description	Validates the PDF, extracts its text, and splits it into chapters on heading lines
//	@Tags			novels
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file			formData	file	true	"Source PDF"
//	@Param			title			formData	string	false	"Novel title (derived from filename if empty)"
//	@Param			author			formData	string	false	"Author"
//	@Param			source_language	formData	string	false	"Source language code"
//	@Param			target_language	formData	string	false	"Target language code"
//	@Success		201	{object}	ImportNovelResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/novels/import [post]
func (e *ImportNovelEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF files are supported")
		return
	}

	// Stage the upload on disk; pdfcpu and pdftotext both want a file path.
	tmpDir, err := os.MkdirTemp("", "novelarc-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload: "+err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, uuid.New().String()+".pdf")
	dst, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload: "+err.Error())
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "failed to stage upload: "+err.Error())
		return
	}
	dst.Close()

	result, err := ingest.Ingest(r.Context(), svcctx.StoresFrom(r.Context()), svcctx.HomeFrom(r.Context()), ingest.Request{
		PDFPath:        tmpPath,
		Title:          r.FormValue("title"),
		Author:         r.FormValue("author"),
		SourceLanguage: r.FormValue("source_language"),
		TargetLanguage: r.FormValue("target_language"),
		Logger:         svcctx.LoggerFrom(r.Context()),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, ImportNovelResponse{
		NovelID:      result.NovelID,
		Title:        result.Title,
		PageCount:    result.PageCount,
		ChapterCount: result.ChapterCount,
	})
}

func (e *ImportNovelEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, author, sourceLang, targetLang string
	cmd := &cobra.Command{
		Use:   "import <pdf-path>",
		Short: "Import a novel from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			fields := map[string]string{}
			if title != "" {
				fields["title"] = title
			}
			if author != "" {
				fields["author"] = author
			}
			if sourceLang != "" {
				fields["source_language"] = sourceLang
			}
			if targetLang != "" {
				fields["target_language"] = targetLang
			}

			var resp ImportNovelResponse
			if err := client.Upload(cmd.Context(), "/api/novels/import", args[0], fields, &resp); err != nil {
				return err
			}
			fmt.Printf("Imported %q: %d chapters from %d pages (novel %s)\n",
				resp.Title, resp.ChapterCount, resp.PageCount, resp.NovelID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Novel title")
	cmd.Flags().StringVar(&author, "author", "", "Author")
	cmd.Flags().StringVar(&sourceLang, "source-language", "", "Source language code")
	cmd.Flags().StringVar(&targetLang, "target-language", "ar", "Target language code")
	return cmd
}
