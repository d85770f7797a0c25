package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"

	// StatusUnknown is reported for ids the store does not hold. It is never stored.
	StatusUnknown Status = "unknown"
)

var statusOrder = map[Status]int{
	StatusStarting:    0,
	StatusDownloading: 1,
	StatusProcessing:  2,
	StatusComplete:    3,
	StatusError:       3,
}

// AllStatuses lists every storable status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusStarting, StatusDownloading, StatusProcessing, StatusComplete, StatusError}
}

// IsTerminal reports whether no further transition may leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// Valid reports whether the status may be stored.
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// ParseStatus converts user input into a storable status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	return status, status.Valid()
}

// StreamKind identifies which underlying stream the latest progress referred to.
type StreamKind string

const (
	StreamAudio StreamKind = "audio"
	StreamVideo StreamKind = "video"
	StreamFile  StreamKind = "file"
)

// RequestKind is the output the client asked for. It is fixed at creation.
type RequestKind string

const (
	KindAudio RequestKind = "audio"
	KindVideo RequestKind = "video"
)

// ParseRequestKind normalizes a request type.
func ParseRequestKind(value string) (RequestKind, error) {
	switch RequestKind(strings.ToLower(strings.TrimSpace(value))) {
	case KindAudio:
		return KindAudio, nil
	case KindVideo:
		return KindVideo, nil
	default:
		return "", fmt.Errorf("unsupported request type %q (want audio or video)", value)
	}
}

// Request carries the parameters a job is created with.
type Request struct {
	URL          string
	Kind         RequestKind
	Quality      string
	AudioBitrate string
}

// Record is the state of one job. Records handed out by a Store are copies;
// mutate them only inside Store.Update.
type Record struct {
	ID             string
	URL            string
	RequestKind    RequestKind
	Quality        string
	AudioBitrate   string
	Status         Status
	Progress       float64
	StreamKind     StreamKind
	ResultPath     string
	ResultFilename string
	ErrorDetail    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// IsTerminal reports whether the record has reached complete or error.
func (r *Record) IsTerminal() bool {
	return r != nil && r.Status.IsTerminal()
}

func newRecord(id string, req Request, now time.Time) *Record {
	return &Record{
		ID:           id,
		URL:          strings.TrimSpace(req.URL),
		RequestKind:  req.Kind,
		Quality:      req.Quality,
		AudioBitrate: req.AudioBitrate,
		Status:       StatusStarting,
		StreamKind:   StreamFile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
