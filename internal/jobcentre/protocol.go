package jobcentre

import (
	"encoding/json"
	"fmt"
)

type request struct {
	Request string          `json:"request"`
	Queue   string          `json:"queue"`
	Pri     *int            `json:"pri"`
	Job     json.RawMessage `json:"job"`
	Queues  []string        `json:"queues"`
	Wait    bool            `json:"wait"`
	ID      *uint64         `json:"id"`
}

type jobResponseBody struct {
	Status string          `json:"status"`
	ID     uint64          `json:"id"`
	Queue  string          `json:"queue"`
	Pri    int             `json:"pri"`
	Job    json.RawMessage `json:"job"`
}

// processLine parses and dispatches one request line against hub on behalf
// of clientID. It returns the bytes of an immediate JSON response, or a
// non-nil *wait when a get{wait:true} found nothing; the caller must then
// block on wait.deliver instead of writing a response now.
func processLine(hub *Hub, clientID uint64, line []byte) ([]byte, *wait) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse("invalid JSON"), nil
	}
	if req.Request == "" {
		return errorResponse(`missing "request" field`), nil
	}

	switch req.Request {
	case "put":
		return processPut(hub, req), nil

	case "get":
		return processGet(hub, clientID, req)

	case "delete":
		if req.ID == nil {
			return errorResponse("bad job ID"), nil
		}
		if hub.Delete(*req.ID) {
			return okResponse(nil), nil
		}
		return statusResponse("no-job"), nil

	case "abort":
		if req.ID == nil {
			return errorResponse("bad job ID"), nil
		}
		if hub.Abort(clientID, *req.ID) {
			return okResponse(nil), nil
		}
		return statusResponse("no-job"), nil

	default:
		return errorResponse(fmt.Sprintf("unknown request type %q", req.Request)), nil
	}
}

func processPut(hub *Hub, req request) []byte {
	if req.Queue == "" || req.Pri == nil || req.Job == nil {
		return errorResponse("missing field")
	}
	if *req.Pri < 0 {
		return errorResponse("bad priority")
	}
	id := hub.Put(req.Queue, *req.Pri, req.Job)
	return okResponse(map[string]any{"id": id})
}

func processGet(hub *Hub, clientID uint64, req request) ([]byte, *wait) {
	if req.Queues == nil {
		return errorResponse("bad request"), nil
	}
	job, w := hub.Get(clientID, req.Queues, req.Wait)
	if w != nil {
		return nil, w
	}
	if job == nil {
		return statusResponse("no-job"), nil
	}
	return jobResponse(job), nil
}

func jobResponse(j *Job) []byte {
	b, _ := json.Marshal(jobResponseBody{Status: "ok", ID: j.ID, Queue: j.Queue, Pri: j.Priority, Job: j.Payload})
	return b
}

func okResponse(extra map[string]any) []byte {
	m := map[string]any{"status": "ok"}
	for k, v := range extra {
		m[k] = v
	}
	b, _ := json.Marshal(m)
	return b
}

func statusResponse(status string) []byte {
	b, _ := json.Marshal(map[string]string{"status": status})
	return b
}

func errorResponse(msg string) []byte {
	b, _ := json.Marshal(map[string]string{"status": "error", "error": msg})
	return b
}
