package utility

import (
	"sync"

	"github.com/google/uuid"
)

// ExecutionID identifies one engine run. Every event carries it so rows from
// different runs can be told apart in the recorder output.
type ExecutionID = uuid.UUID

var executionID = sync.OnceValue(func() ExecutionID {
	// v7 keeps run ids sortable by start time.
	return uuid.Must(uuid.NewV7())
})

func GetExecutionID() ExecutionID {
	return executionID()
}
