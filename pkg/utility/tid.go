package utility

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TraceID tags a single event so it can be followed across handler logs and
// recorder rows. Ids are snowflake-shaped and sort by creation time:
//
//	41 bits millisecond timestamp | 10 bits machine | 13 bits sequence
type TraceID = uint64

const (
	traceMachineBits  = 10
	traceSequenceBits = 13

	traceSequenceMask = 1<<traceSequenceBits - 1
	traceMachineMask  = 1<<traceMachineBits - 1
)

// traceEpoch anchors the timestamp field; ids created before a restart and
// after it still compare correctly as long as the epoch never moves.
var traceEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

var traceState struct {
	machine  uint64
	sequence atomic.Uint64
}

func init() {
	traceState.machine = uint64(uuid.New().ID()) & traceMachineMask
}

func CreateTraceID() TraceID {
	millis := uint64(time.Now().UnixMilli() - traceEpoch)
	seq := traceState.sequence.Add(1) & traceSequenceMask
	if seq == 0 {
		// Sequence rolled over inside one millisecond, step into the next.
		time.Sleep(time.Millisecond)
		millis = uint64(time.Now().UnixMilli() - traceEpoch)
	}

	return millis<<(traceMachineBits+traceSequenceBits) |
		traceState.machine<<traceSequenceBits |
		seq
}

// ParseTraceID splits an id back into its fields, mainly for log forensics.
func ParseTraceID(id TraceID) (createdAt time.Time, machine, sequence uint64) {
	sequence = id & traceSequenceMask
	machine = id >> traceSequenceBits & traceMachineMask
	createdAt = time.UnixMilli(traceEpoch + int64(id>>(traceMachineBits+traceSequenceBits)))
	return
}
