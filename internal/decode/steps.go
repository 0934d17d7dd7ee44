// Package decode holds the pipeline steps that turn a raw record into an
// observation and hand it to the configured sinks.
package decode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"geotime/internal/enrich"
	"geotime/internal/models"
	"geotime/internal/service"
	"geotime/pkg/epoch"
	"geotime/pkg/geo"
)

var (
	ErrMissingTimestamp = errors.New("record has no timestamp_ms")
	ErrNotStored        = errors.New("a sink failed, message left unacknowledged")
)

// Item is the unit flowing through the decoder pipeline.
type Item struct {
	Fetched *service.FetchedObject[*models.Record]

	mu          sync.Mutex
	observation models.Observation
	storeFailed bool
}

func NewItem(fetched *service.FetchedObject[*models.Record]) *Item {
	return &Item{
		Fetched:     fetched,
		observation: models.Observation{ID: fetched.Data.ID},
	}
}

// Observation returns a copy of the decoded observation.
func (it *Item) Observation() models.Observation {
	it.mu.Lock()
	defer it.mu.Unlock()
	obs := it.observation
	obs.Errors = append([]string(nil), it.observation.Errors...)
	return obs
}

func (it *Item) update(fn func(o *models.Observation)) {
	it.mu.Lock()
	defer it.mu.Unlock()
	fn(&it.observation)
}

// fail records err on the observation and returns it for the pipeline to report.
func (it *Item) fail(err error) error {
	it.update(func(o *models.Observation) { o.Errors = append(o.Errors, err.Error()) })
	return err
}

// sinkFailed marks the item so its message is not acknowledged.
func (it *Item) sinkFailed(err error) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.storeFailed = true
	return err
}

// Stored reports whether every sink that ran accepted the item.
func (it *Item) Stored() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return !it.storeFailed
}

// Coordinates extracts the position from the raw geometry text.
func Coordinates(_ context.Context, it *Item) error {
	c, err := geo.ExtractCoordinates(it.Fetched.Data.GeometryText())
	if err != nil {
		return it.fail(err)
	}
	it.update(func(o *models.Observation) {
		o.Longitude = c.Lon
		o.Latitude = c.Lat
	})
	return nil
}

// ObservedAt converts the record's millisecond timestamp to a date-time.
func ObservedAt(_ context.Context, it *Item) error {
	ms := it.Fetched.Data.TimestampMs
	if ms == nil {
		return it.fail(fmt.Errorf("record %s: %w", it.Fetched.Data.ID, ErrMissingTimestamp))
	}
	t, err := epoch.MillisecondsToDate(*ms)
	if err != nil {
		return it.fail(err)
	}
	it.update(func(o *models.Observation) { o.ObservedAt = t })
	return nil
}

// ObservationStore is a sink for decoded observations.
type ObservationStore interface {
	SaveObservation(ctx context.Context, obs models.Observation) error
}

// Publisher sends encoded observations downstream.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Committer acknowledges the message an item came from.
type Committer interface {
	Commit(ctx context.Context, obj *service.FetchedObject[*models.Record]) error
}

// Save returns a step writing complete observations to store. It returns nil
// for a nil store so optional sinks can be listed unconditionally.
func Save(name string, store ObservationStore) enrich.Step[Item] {
	if store == nil {
		return nil
	}
	return func(ctx context.Context, it *Item) error {
		obs := it.Observation()
		if !obs.Complete() {
			return nil
		}
		if err := store.SaveObservation(ctx, obs); err != nil {
			return it.sinkFailed(fmt.Errorf("%s: save %s: %w", name, obs.ID, err))
		}
		return nil
	}
}

// Publish returns a step sending every observation, complete or not, to pub.
func Publish(pub Publisher) enrich.Step[Item] {
	if pub == nil {
		return nil
	}
	return func(ctx context.Context, it *Item) error {
		obs := it.Observation()
		data, err := json.Marshal(obs)
		if err != nil {
			return fmt.Errorf("encode %s: %w", obs.ID, err)
		}
		if err := pub.Publish(ctx, obs.ID, data); err != nil {
			return it.sinkFailed(err)
		}
		return nil
	}
}

// Commit returns a step acknowledging the item's source message. Items a sink
// failed on are not acknowledged, so the message is delivered again.
func Commit(c Committer) enrich.Step[Item] {
	return func(ctx context.Context, it *Item) error {
		if !it.Stored() {
			return fmt.Errorf("record %s at offset %d: %w", it.Fetched.Data.ID, it.Fetched.Message.Offset, ErrNotStored)
		}
		return c.Commit(ctx, it.Fetched)
	}
}

// StopOnUnstored returns an error handler that logs every failure and calls
// cancel once an item could not be acknowledged. Kafka offsets are
// cumulative, so committing any later message of the partition would ack
// the failed one as well; stopping keeps it eligible for redelivery.
func StopOnUnstored(cancel context.CancelFunc) enrich.ErrorHandler[Item] {
	return func(it *Item, stage string, err error) {
		log.Printf("record %s: %s failed: %v", it.Fetched.Data.ID, stage, err)
		if errors.Is(err, ErrNotStored) {
			cancel()
		}
	}
}

// NewPipeline wires the decoder stages: decode, then store, then ack.
func NewPipeline(c Committer, pub Publisher, stores map[string]ObservationStore) *enrich.Pipeline[Item] {
	storeSteps := []enrich.Step[Item]{Publish(pub)}
	for name, store := range stores {
		storeSteps = append(storeSteps, Save(name, store))
	}
	return enrich.NewPipeline(
		enrich.NewStage("decode", Coordinates, ObservedAt),
		enrich.NewStage("store", storeSteps...),
		enrich.NewStage("ack", Commit(c)),
	)
}
