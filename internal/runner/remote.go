package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bioclick/bioclick/internal/artifact"
	"github.com/bioclick/bioclick/internal/config"
	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/models"
)

// RemoteRunner executes jobs by uploading the input file to the remote
// BLAST service and saving the returned result as an artifact.
type RemoteRunner struct {
	client *http.Client
	cfg    config.RemoteConfig
	store  *artifact.Store
	logger *logging.Logger
}

// NewRemoteRunner creates a runner targeting the configured service.
func NewRemoteRunner(client *http.Client, cfg config.RemoteConfig, store *artifact.Store, logger *logging.Logger) *RemoteRunner {
	return &RemoteRunner{
		client: client,
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Run uploads the input file and waits for the service's response. A
// 2xx response body is saved verbatim under the configured result name
// and the job completes with code 0. Any other outcome fails the job
// with the service's error message when one is present.
func (r *RemoteRunner) Run(ctx context.Context, job *models.JobHandle) <-chan events.Event {
	out := make(chan events.Event, eventChanSize)
	go func() {
		defer close(out)
		r.run(ctx, job, out)
	}()
	return out
}

func (r *RemoteRunner) run(ctx context.Context, job *models.JobHandle, out chan<- events.Event) {
	out <- events.NewStateChange(job.ID, job.Name,
		string(models.StateDispatched), string(models.StateRunning))

	req, err := r.buildRequest(ctx, job)
	if err != nil {
		r.fail(job, out, err.Error())
		return
	}

	r.logger.Info().
		Str("job_id", job.ID).
		Str("url", req.URL.String()).
		Str("blast_type", string(job.Request.BlastType)).
		Msg("Uploading job to remote service")

	resp, err := r.client.Do(req)
	if err != nil {
		r.fail(job, out, fmt.Sprintf("request to %s failed: %v", r.endpoint(), err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.fail(job, out, r.serverError(resp))
		return
	}

	path, err := r.store.Save(r.cfg.ResultFilename, job.ID, resp.Body)
	if err != nil {
		r.fail(job, out, fmt.Sprintf("failed to save result: %v", err))
		return
	}

	r.logger.Info().
		Str("job_id", job.ID).
		Str("result", path).
		Msg("Remote job completed")

	done := events.NewCompleted(job.ID, 0)
	done.ArtifactPath = path
	out <- done
}

// buildRequest assembles the multipart upload. The input is small by
// contract (the dispatcher enforces the upload limit) so buffering the
// whole body in memory is fine.
func (r *RemoteRunner) buildRequest(ctx context.Context, job *models.JobHandle) (*http.Request, error) {
	f, err := os.Open(job.Request.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %v", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filepath.Base(job.Request.InputPath))
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %v", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read input file: %v", err)
	}

	fields := map[string]string{
		"blastType": string(job.Request.BlastType),
		"db":        r.cfg.Database,
		"evalue":    r.cfg.EValue,
		"outfmt":    r.cfg.OutputFormat,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to encode upload: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint()+"/run_blast", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

// serverError extracts the service's error message from a non-2xx
// response. The service reports errors as {"error": "..."}; anything
// else falls back to the HTTP status text.
func (r *RemoteRunner) serverError(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(body) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return fmt.Sprintf("server error: %s", payload.Error)
		}
	}
	return fmt.Sprintf("server error: %s", resp.Status)
}

func (r *RemoteRunner) endpoint() string {
	return strings.TrimRight(r.cfg.Endpoint, "/")
}

func (r *RemoteRunner) fail(job *models.JobHandle, out chan<- events.Event, msg string) {
	r.logger.Error().
		Str("job_id", job.ID).
		Str("reason", msg).
		Msg("Remote job failed")

	out <- events.NewErrorChunk(job.ID, msg)
	out <- events.NewFailed(job.ID, msg)
}
