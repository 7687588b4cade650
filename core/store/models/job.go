package models

import (
	uuid "github.com/google/uuid"
)

// JobLocation identifies where a job originates or where its output is
// delivered. Serialized as small integers to match the container wire
// contract.
type JobLocation int

const (
	// JobLocationOnchain marks data that comes from, or is delivered to,
	// the chain.
	JobLocationOnchain JobLocation = iota
	// JobLocationOffchain marks data held off-chain, including every
	// intermediate hop of a container chain.
	JobLocationOffchain
	// JobLocationStream marks output delivered as a byte stream.
	JobLocationStream
)

func (l JobLocation) String() string {
	switch l {
	case JobLocationOnchain:
		return "onchain"
	case JobLocationOffchain:
		return "offchain"
	case JobLocationStream:
		return "stream"
	}
	return "unknown"
}

// JobInput is the initial input of a job: where it came from, where its
// final output goes, and the payload handed to the first container.
type JobInput struct {
	Source      JobLocation `json:"source"`
	Destination JobLocation `json:"destination"`
	Data        interface{} `json:"data"`
}

// ContainerInput is the request body POSTed to a single container in a
// chain. For position i in a chain of length n, Destination is the job
// destination iff i == n-1, otherwise off-chain; Source is the job source
// for the first container and off-chain for every subsequent one.
type ContainerInput struct {
	Source        JobLocation `json:"source"`
	Destination   JobLocation `json:"destination"`
	Data          interface{} `json:"data"`
	RequiresProof bool        `json:"requires_proof"`
}

// ContainerResult is the outcome of one container invocation. It is a
// tagged union with exactly two cases, ContainerOutput and ContainerError;
// consumers type-switch on it.
type ContainerResult interface {
	// ContainerID returns the ID of the container that produced the result.
	ContainerID() string

	containerResult()
}

// ContainerOutput is the success case of ContainerResult, carrying the
// container's parsed JSON response.
type ContainerOutput struct {
	Container string                 `json:"container"`
	Output    map[string]interface{} `json:"output"`
}

// ContainerID implements ContainerResult.
func (o ContainerOutput) ContainerID() string { return o.Container }

func (o ContainerOutput) containerResult() {}

// ContainerError is the failure case of ContainerResult, carrying a
// diagnostic message.
type ContainerError struct {
	Container string `json:"container"`
	Error     string `json:"error"`
}

// ContainerID implements ContainerResult.
func (e ContainerError) ContainerID() string { return e.Container }

func (e ContainerError) containerResult() {}

var (
	_ ContainerResult = ContainerOutput{}
	_ ContainerResult = ContainerError{}
)

// OffchainJobMessage is a job request delivered through the node's
// off-chain API.
type OffchainJobMessage struct {
	ID            uuid.UUID   `json:"id"`
	Containers    []string    `json:"containers"`
	Data          interface{} `json:"data"`
	RequiresProof bool        `json:"requires_proof"`
}

// SubscriptionCreatedMessage wraps a chain subscription for Guardian
// evaluation and downstream tracking.
type SubscriptionCreatedMessage struct {
	Subscription Subscription `json:"subscription"`
}

// GuardianError is the rejection reason returned by the Guardian policy
// layer for messages that are not admitted.
type GuardianError struct {
	Reason string `json:"error"`
}

func (e *GuardianError) Error() string { return e.Reason }
