package domain

type ResultStatus string

const (
	StatusOK    ResultStatus = "ok"
	StatusError ResultStatus = "error"
)

type WorkerResult struct {
	Agent  AgentID
	Output Payload
	Status ResultStatus
	// Err keeps the underlying cause for the supervisor; it is never sent to
	// the client.
	Err error
}

func OKResult(id AgentID, output Payload) WorkerResult {
	return WorkerResult{Agent: id, Output: output, Status: StatusOK}
}

func ErrorResult(id AgentID, message string, cause error) WorkerResult {
	return WorkerResult{Agent: id, Output: TextPayload(message), Status: StatusError, Err: cause}
}

func (r WorkerResult) Failed() bool {
	return r.Status == StatusError
}
