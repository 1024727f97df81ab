package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/jobs"
	"github.com/novelarc/novelarc/internal/svcctx"
)

// CreateJobRequest is the request body for creating a translation job.
type CreateJobRequest struct {
	NovelID string `json:"novel_id"`
	// ChapterNumbers selects the chapters to translate. Empty means every
	// chapter of the novel that is not yet translated.
	ChapterNumbers []int    `json:"chapter_numbers,omitempty"`
	APIKeys        []string `json:"api_keys,omitempty"`
	Model          string   `json:"model,omitempty"`
}

// JobResponse wraps a single job record.
type JobResponse struct {
	Job *jobs.Record `json:"job"`
}

// ListJobsResponse is the response for listing jobs.
type ListJobsResponse struct {
	Jobs []*jobs.Record `json:"jobs"`
}

// CreateJobEndpoint handles POST /api/jobs.
type CreateJobEndpoint struct{}

func (e *CreateJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs", e.handler
}

func (e *CreateJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a translation job
//	@Description	Create a translation job and start it in the background
//	@Tags			jobs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateJobRequest	true	"Job parameters"
//	@Success		201		{object}	JobResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/jobs [post]
func (e *CreateJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.NovelID == "" {
		writeError(w, http.StatusBadRequest, "novel_id is required")
		return
	}

	stores := svcctx.StoresFrom(r.Context())
	jobStore := svcctx.JobsFrom(r.Context())
	orch := svcctx.OrchestratorFrom(r.Context())

	if _, err := stores.Novels.Get(r.Context(), req.NovelID); err != nil {
		writeError(w, http.StatusNotFound, "novel not found")
		return
	}

	numbers := req.ChapterNumbers
	if len(numbers) == 0 {
		chapters, err := stores.Chapters.List(r.Context(), req.NovelID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, ch := range chapters {
			if !ch.Translated {
				numbers = append(numbers, ch.Number)
			}
		}
	}
	if len(numbers) == 0 {
		writeError(w, http.StatusBadRequest, "no chapters to translate")
		return
	}

	record := jobs.NewRecord(req.NovelID, numbers, req.APIKeys, req.Model)
	id, err := jobStore.Create(r.Context(), record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The job runs in the background; callers poll the record for progress.
	orch.Start(id)

	created, err := jobStore.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, JobResponse{Job: created})
}

func (e *CreateJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	var chapters string
	var model string
	cmd := &cobra.Command{
		Use:   "create <novel-id>",
		Short: "Create and start a translation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := CreateJobRequest{NovelID: args[0], Model: model}
			if chapters != "" {
				for _, part := range strings.Split(chapters, ",") {
					n, err := strconv.Atoi(strings.TrimSpace(part))
					if err != nil {
						return fmt.Errorf("invalid chapter number %q", part)
					}
					req.ChapterNumbers = append(req.ChapterNumbers, n)
				}
			}

			client := api.NewClient(getServerURL())
			var resp JobResponse
			if err := client.Post(cmd.Context(), "/api/jobs", req, &resp); err != nil {
				return err
			}
			return api.Output(resp.Job)
		},
	}
	cmd.Flags().StringVar(&chapters, "chapters", "", "Comma-separated chapter numbers (default: all untranslated)")
	cmd.Flags().StringVar(&model, "model", "", "Model override for this job")
	return cmd
}

// ListJobsEndpoint handles GET /api/jobs.
type ListJobsEndpoint struct{}

func (e *ListJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs", e.handler
}

func (e *ListJobsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List jobs
//	@Description	List all translation jobs, newest first
//	@Tags			jobs
//	@Produce		json
//	@Success		200	{object}	ListJobsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/jobs [get]
func (e *ListJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.JobsFrom(r.Context())

	list, err := jobStore.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListJobsResponse{Jobs: list})
}

func (e *ListJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List translation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListJobsResponse
			if err := client.Get(cmd.Context(), "/api/jobs", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetJobEndpoint handles GET /api/jobs/{id}.
type GetJobEndpoint struct{}

func (e *GetJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}", e.handler
}

func (e *GetJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a job
//	@Description	Get a translation job with its full log
//	@Tags			jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	JobResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/jobs/{id} [get]
func (e *GetJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.JobsFrom(r.Context())

	record, err := jobStore.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, JobResponse{Job: record})
}

func (e *GetJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a translation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobResponse
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp.Job)
		},
	}
}

// PauseJobEndpoint handles POST /api/jobs/{id}/pause.
type PauseJobEndpoint struct{}

func (e *PauseJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs/{id}/pause", e.handler
}

func (e *PauseJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Pause a job
//	@Description	Request a pause; the job stops before its next chapter
//	@Tags			jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	JobResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/jobs/{id}/pause [post]
func (e *PauseJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.JobsFrom(r.Context())
	id := r.PathValue("id")

	record, err := jobStore.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record.Status != jobs.StatusActive {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s, only active jobs can be paused", record.Status))
		return
	}

	if err := jobStore.SetStatus(r.Context(), id, jobs.StatusPaused); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	record.Status = jobs.StatusPaused
	writeJSON(w, http.StatusOK, JobResponse{Job: record})
}

func (e *PauseJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause a running translation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobResponse
			if err := client.Post(cmd.Context(), "/api/jobs/"+args[0]+"/pause", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp.Job)
		},
	}
}

// ResumeJobEndpoint handles POST /api/jobs/{id}/resume.
type ResumeJobEndpoint struct{}

func (e *ResumeJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs/{id}/resume", e.handler
}

func (e *ResumeJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Resume a job
//	@Description	Resume a paused job; translation continues with the next untranslated chapter
//	@Tags			jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	JobResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/jobs/{id}/resume [post]
func (e *ResumeJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.JobsFrom(r.Context())
	orch := svcctx.OrchestratorFrom(r.Context())
	id := r.PathValue("id")

	record, err := jobStore.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record.Status != jobs.StatusPaused {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s, only paused jobs can be resumed", record.Status))
		return
	}

	if err := jobStore.SetStatus(r.Context(), id, jobs.StatusActive); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	orch.Start(id)

	record.Status = jobs.StatusActive
	writeJSON(w, http.StatusOK, JobResponse{Job: record})
}

func (e *ResumeJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a paused translation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobResponse
			if err := client.Post(cmd.Context(), "/api/jobs/"+args[0]+"/resume", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp.Job)
		},
	}
}
