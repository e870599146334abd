package ambar

import "errors"

// Error policies understood by ambar
// https://docs.ambar.cloud/#Data%20Destinations
const (
	PolicyMustRetry = "must_retry"
	PolicyKeepGoing = "keep_going"
)

// Reply is the body ambar expects in response to every pushed record
type Reply struct {
	Result Result `json:"result"`
}

// Result holds either Success or Error
type Result struct {
	Success *struct{} `json:"success,omitempty"`
	Error   *Failure  `json:"error,omitempty"`
}

// Failure describes why a record was not projected
type Failure struct {
	Policy      string `json:"policy"`
	Class       string `json:"class"`
	Description string `json:"description"`
}

// ReplyFor maps the outcome of Project to the reply ambar acts on.
// nil and ErrNoRetry acknowledge the record, ErrKeepItGoing skips it and
// everything else is retried
func ReplyFor(err error) Reply {
	switch {
	case err == nil, errors.Is(err, ErrNoRetry):
		return Reply{Result: Result{Success: &struct{}{}}}

	case errors.Is(err, ErrKeepItGoing):
		return failure(PolicyKeepGoing, err)

	default:
		return failure(PolicyMustRetry, err)
	}
}

func failure(policy string, err error) Reply {
	return Reply{
		Result: Result{
			Error: &Failure{
				Policy:      policy,
				Class:       "projection_failed",
				Description: err.Error(),
			},
		},
	}
}
