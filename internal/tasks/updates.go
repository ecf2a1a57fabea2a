package tasks

import (
	"time"

	"github.com/desertthunder/intmo/internal/models"
)

// Update is the result of one poll.
type Update struct {
	Phase Phase
	Track models.TrackInfo
	Err   error
	At    time.Time
}

// Phase tells consumers what an [Update] carries.
type Phase int

const (
	Polled Phase = iota // Track holds the current item
	PollFailed          // Err holds the failure; Track is zero
	Stopped             // the poller exited; Err holds the context error
)

func (p Phase) String() string {
	switch p {
	case Polled:
		return "polled"
	case PollFailed:
		return "poll_failed"
	case Stopped:
		return "stopped"
	default:
		return ""
	}
}

func polledUpdate(track models.TrackInfo, at time.Time) Update {
	return Update{Phase: Polled, Track: track, At: at}
}

func failedUpdate(err error, at time.Time) Update {
	return Update{Phase: PollFailed, Err: err, At: at}
}
