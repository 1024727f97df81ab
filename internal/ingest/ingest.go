// Package ingest imports a novel from a source PDF into chapter records.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/novelarc/novelarc/internal/home"
	"github.com/novelarc/novelarc/internal/store"
)

// Request contains the parameters for importing a novel.
type Request struct {
	PDFPath        string       // Source PDF file path
	Title          string       // Novel title (optional, derived from filename if empty)
	Author         string       // Novel author (optional)
	SourceLanguage string       // e.g. "en"
	TargetLanguage string       // e.g. "ar"
	Logger         *slog.Logger // Optional logger for progress updates
}

// Result contains the result of a successful import.
type Result struct {
	NovelID      string
	Title        string
	PageCount    int
	ChapterCount int
}

// chapterText is one chapter carved out of the extracted text.
type chapterText struct {
	Number int
	Title  string
	Body   string
}

// Ingest validates the PDF, extracts its text, splits it into chapters on
// heading lines, and stores the novel with per-chapter content.
func Ingest(ctx context.Context, stores *store.Stores, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if req.PDFPath == "" {
		return nil, fmt.Errorf("no PDF path provided")
	}
	if _, err := os.Stat(req.PDFPath); err != nil {
		return nil, fmt.Errorf("PDF not found: %s", req.PDFPath)
	}

	pageCount, err := countPages(req.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	title := req.Title
	if title == "" {
		title = deriveTitle(req.PDFPath)
	}
	log.Info("starting import", "title", title, "pages", pageCount)

	text, err := extractText(req.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("PDF contains no extractable text")
	}

	chapters := splitChapters(text)
	log.Debug("split chapters", "count", len(chapters))

	novelID, err := stores.Novels.Create(ctx, &store.Novel{
		Title:          title,
		Author:         req.Author,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		ChapterCount:   len(chapters),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create novel: %w", err)
	}

	metas := make([]*store.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		metas = append(metas, &store.Chapter{
			NovelID: novelID,
			Number:  ch.Number,
			Title:   ch.Title,
		})
	}
	if err := stores.Chapters.CreateMany(ctx, metas); err != nil {
		return nil, fmt.Errorf("failed to create chapters: %w", err)
	}
	for _, ch := range chapters {
		if err := stores.Content.PutOriginal(ctx, novelID, ch.Number, ch.Body); err != nil {
			return nil, fmt.Errorf("failed to store chapter %d content: %w", ch.Number, err)
		}
	}

	if homeDir != nil {
		if err := archiveSource(homeDir, novelID, req.PDFPath); err != nil {
			// The novel is already usable; keep going without the archive copy.
			log.Warn("failed to archive source PDF", "error", err)
		}
	}

	log.Info("import complete", "novel_id", novelID, "chapters", len(chapters))

	return &Result{
		NovelID:      novelID,
		Title:        title,
		PageCount:    pageCount,
		ChapterCount: len(chapters),
	}, nil
}

// countPages validates the PDF structure and returns its page count.
func countPages(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if pageCount == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pageCount, nil
}

// extractText extracts the full text of a PDF using pdftotext (poppler-utils).
func extractText(pdfPath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "novelarc-import-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "novel.txt")

	// -layout keeps line breaks close to the printed page, which the
	// chapter heading detection relies on.
	cmd := exec.Command("pdftotext", "-layout", pdfPath, outPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}
	return string(data), nil
}

// chapterHeading matches "Chapter N ..." and "الفصل N ..." heading lines.
var chapterHeading = regexp.MustCompile(`(?m)^[ \t]*(?:Chapter|الفصل)[ \t]+(\d+)[^\n]*$`)

// splitChapters carves the text into chapters on heading lines. Text before
// the first heading is dropped (front matter). When no headings are found
// the whole text becomes chapter 1. Duplicate chapter numbers keep the
// first occurrence.
func splitChapters(text string) []chapterText {
	matches := chapterHeading.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []chapterText{{
			Number: 1,
			Title:  "Chapter 1",
			Body:   strings.TrimSpace(text),
		}}
	}

	seen := make(map[int]bool)
	chapters := make([]chapterText, 0, len(matches))
	for i, m := range matches {
		heading := strings.TrimSpace(text[m[0]:m[1]])
		number, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || seen[number] {
			continue
		}
		seen[number] = true

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])

		chapters = append(chapters, chapterText{
			Number: number,
			Title:  heading,
			Body:   body,
		})
	}
	return chapters
}

// archiveSource copies the original PDF into the novel's upload directory.
func archiveSource(homeDir *home.Dir, novelID, pdfPath string) error {
	if err := homeDir.EnsureNovelUploadDir(novelID); err != nil {
		return err
	}

	src, err := os.Open(pdfPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(homeDir.NovelUploadPath(novelID, filepath.Base(pdfPath)))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// deriveTitle extracts a title from a PDF filename.
// e.g., "martial-peak.pdf" -> "martial-peak"
func deriveTitle(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
