package models

type ActRequest struct {
	Actor   string `json:"actor"`
	Action  string `json:"action"` // APPROVE or REJECT
	Comment string `json:"comment,omitempty"`
}

type ActResponse struct {
	StepExecution StepExecutionApiResponse `json:"stepExecution"`
	Instance      InstanceApiResponse      `json:"instance"`
}
