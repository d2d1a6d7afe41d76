package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord mirrors the go-users activity record contract so lifecycle
// events flow into a host's existing activity feed without translation.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink receives document lifecycle events. Implementations satisfy
// the go-users ActivitySink contract.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}
