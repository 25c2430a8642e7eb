// Package job defines the queue job record, its lifecycle statuses, and the job names
// dispatched by the report pipeline.
package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type (
	Status string
	Job    struct {
		ID           string         `json:"id"`
		Name         string         `json:"name"`
		Payload      map[string]any `json:"payload,omitempty"`
		Status       Status         `json:"status"`
		ErrorMessage string         `json:"error_message,omitempty"`
		CreatedAt    time.Time      `json:"created_at"`
		UpdatedAt    time.Time      `json:"updated_at"`
		StartedAt    *time.Time     `json:"started_at,omitempty"`
		CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	}
)

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const (
	GenerateReport  = "report:generate"
	SendReportEmail = "report:send-email"
	IngestUser      = "ingest:user"
	GenerateDigest  = "digest:generate"
)

func New(name string, payload map[string]any) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   payload,
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Terminal reports whether the job reached completed or failed.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

func (j *Job) Clone() *Job {
	c := *j
	if j.Payload != nil {
		c.Payload = make(map[string]any, len(j.Payload))
		for k, v := range j.Payload {
			c.Payload[k] = v
		}
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (j *Job) ToJSON() (string, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func FromJSON(data string) (*Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, err
	}

	return &j, nil
}

// PayloadString reads a string field from a job payload.
func PayloadString(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
