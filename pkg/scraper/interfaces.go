package scraper

import (
	"context"

	"roparse/pkg/models"
)

// PageFetcher defines the groups API operation the driver depends on
type PageFetcher interface {
	FetchGroupMembers(ctx context.Context, groupID, cursor string) (*models.Page, error)
}

// Observer receives crawl events. Calls are serialized, but may come from
// any worker goroutine, so implementations must not block for long.
type Observer interface {
	PageProcessed(progress models.Progress)
	FetchFailed(err error)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// fields are skipped.
type ObserverFuncs struct {
	OnPage  func(models.Progress)
	OnError func(error)
}

func (o ObserverFuncs) PageProcessed(progress models.Progress) {
	if o.OnPage != nil {
		o.OnPage(progress)
	}
}

func (o ObserverFuncs) FetchFailed(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}
