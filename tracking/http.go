package tracking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPExperiment POSTs tracked records as JSON to a tracking service.
// Delivery is best effort: transport and status errors are logged, not
// returned, so tracking can never break an evaluation run. A 409 (another
// writer holds the run) is retried once after a short pause.
type HTTPExperiment struct {
	client     *http.Client
	baseURL    string
	name       string
	additional map[string]float64

	// conflictWait is shortened in tests.
	conflictWait time.Duration
}

var _ Experiment = (*HTTPExperiment)(nil)

// trackRecord is the POST body for one tracked dict.
type trackRecord struct {
	Experiment string             `json:"experiment"`
	Values     map[string]float64 `json:"values"`
	Context    map[string]string  `json:"context,omitempty"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// NewHTTPExperiment builds an HTTP-sink experiment posting to
// baseURL/api/experiments/track. A nil client gets a 30 second timeout.
func NewHTTPExperiment(client *http.Client, baseURL, name string) *HTTPExperiment {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPExperiment{
		client:       client,
		baseURL:      baseURL,
		name:         name,
		conflictWait: 2 * time.Second,
	}
}

// WithAdditionalValues merges the given values into every tracked dict.
// Tracked values win on key collision.
func (e *HTTPExperiment) WithAdditionalValues(values map[string]float64) *HTTPExperiment {
	e.additional = values
	return e
}

// TrackValues implements Experiment.
func (e *HTTPExperiment) TrackValues(values map[string]float64, opts ...TrackOption) {
	call := applyOptions(opts)
	record := trackRecord{
		Experiment: e.name,
		Values:     mergeAdditional(values, e.additional),
		Context:    call.context,
		RecordedAt: time.Now(),
	}

	if err := e.post(record); err != nil {
		log.Printf("[tracking] WARNING: dropping record for %s: %v", e.name, err)
	}
}

func (e *HTTPExperiment) post(record trackRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	url := e.baseURL + "/api/experiments/track"

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated ||
			resp.StatusCode == http.StatusNoContent {
			resp.Body.Close()
			return nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusConflict && attempt == 0 {
			log.Printf("[tracking] experiment %s busy, retrying...", e.name)
			time.Sleep(e.conflictWait)
			continue
		}

		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("experiment %s still busy after retry", e.name)
}
