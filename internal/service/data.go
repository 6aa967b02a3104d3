package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/repository"
	"github.com/atinyakov/alphabase/internal/rules"
)

// ErrItemNotFound is returned when a data item does not exist.
var ErrItemNotFound = errors.New("data not found")

// AccessError is returned when the collection rules refuse a request. Its
// message is shown to the caller as is.
type AccessError struct {
	Detail string
}

func (e *AccessError) Error() string { return e.Detail }

func denied(format string, args ...any) error {
	return &AccessError{Detail: fmt.Sprintf(format, args...)}
}

// DataRepository persists the data items.
type DataRepository interface {
	ListCollections(ctx context.Context) ([]string, error)
	GetItem(ctx context.Context, collection, key string) (models.StoredItem, error)
	PutItem(ctx context.Context, collection, key string, value []byte, owner string) error
	ListItems(ctx context.Context, collection string) ([]models.StoredItem, error)
	DeleteItem(ctx context.Context, collection, key string) error
}

// Broadcaster pushes an event to every connected console.
type Broadcaster interface {
	Broadcast(e models.Event)
}

// DataService stores JSON values in named collections, guarded by the
// collection rules.
type DataService struct {
	repo   DataRepository
	rules  *rules.Set
	events Broadcaster
}

// NewDataService constructs a DataService. A nil rule set uses the defaults;
// events may be nil.
func NewDataService(repo DataRepository, set *rules.Set, events Broadcaster) *DataService {
	if set == nil {
		set = rules.Default()
	}
	return &DataService{repo: repo, rules: set, events: events}
}

// Collections returns the names of the collections user may read.
func (s *DataService) Collections(ctx context.Context, user string) ([]string, error) {
	names, err := s.repo.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	visible := []string{}
	for _, name := range names {
		if s.rules.CanRead(name, user) {
			visible = append(visible, name)
		}
	}
	return visible, nil
}

// Set stores value under collection/key. Overwriting needs write access to
// the existing item.
func (s *DataService) Set(ctx context.Context, user string, item models.DataItem) error {
	item.Collection = strings.TrimSpace(item.Collection)
	item.Key = strings.TrimSpace(item.Key)
	if err := validateItemPath(item.Collection, item.Key); err != nil {
		return err
	}
	if len(item.Value) == 0 || !json.Valid(item.Value) {
		return fmt.Errorf("%w: value must be valid JSON", ErrInvalidInput)
	}
	if !s.rules.CanWrite(item.Collection, user) {
		return denied("Write access denied to collection: %s", item.Collection)
	}

	existing, err := s.repo.GetItem(ctx, item.Collection, item.Key)
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
	case err != nil:
		return err
	case !s.rules.CanWriteItem(user, resourceOf(existing)):
		return denied("Not authorized to update this data")
	}

	if err := s.repo.PutItem(ctx, item.Collection, item.Key, item.Value, user); err != nil {
		return err
	}
	s.broadcast("update", "Data Updated", item.Collection, item.Key)
	return nil
}

// Get returns one item.
func (s *DataService) Get(ctx context.Context, user, collection, key string) (models.StoredItem, error) {
	if !s.rules.CanRead(collection, user) {
		return models.StoredItem{}, denied("Read access denied to collection: %s", collection)
	}
	item, err := s.repo.GetItem(ctx, collection, key)
	if errors.Is(err, repository.ErrItemNotFound) {
		return models.StoredItem{}, ErrItemNotFound
	}
	if err != nil {
		return models.StoredItem{}, err
	}
	if !s.rules.CanReadItem(user, resourceOf(item)) {
		return models.StoredItem{}, denied("Not authorized to read this data")
	}
	return item, nil
}

// List returns the values of collection that user may read, by key.
func (s *DataService) List(ctx context.Context, user, collection string) (map[string]json.RawMessage, error) {
	if !s.rules.CanRead(collection, user) {
		return nil, denied("Read access denied to collection: %s", collection)
	}
	items, err := s.repo.ListItems(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(items))
	for _, item := range items {
		if s.rules.CanReadItem(user, resourceOf(item)) {
			out[item.Key] = item.Value
		}
	}
	return out, nil
}

// Delete removes one item.
func (s *DataService) Delete(ctx context.Context, user, collection, key string) error {
	if !s.rules.CanWrite(collection, user) {
		return denied("Write access denied to collection: %s", collection)
	}
	item, err := s.repo.GetItem(ctx, collection, key)
	if errors.Is(err, repository.ErrItemNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	if !s.rules.CanWriteItem(user, resourceOf(item)) {
		return denied("Not authorized to delete this data")
	}

	if err := s.repo.DeleteItem(ctx, collection, key); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	s.broadcast("delete", "Data Deleted", collection, key)
	return nil
}

func (s *DataService) broadcast(action, title, collection, key string) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(models.Event{
		Action:  action,
		Title:   title,
		Message: collection + "/" + key,
		Kind:    models.EventInfo,
	})
}

func resourceOf(item models.StoredItem) rules.Resource {
	return rules.Resource{Collection: item.Collection, Key: item.Key, Owner: item.Owner}
}

func validateItemPath(collection, key string) error {
	if collection == "" || key == "" {
		return fmt.Errorf("%w: collection and key are required", ErrInvalidInput)
	}
	if strings.Contains(collection, "/") || strings.Contains(key, "/") {
		return fmt.Errorf("%w: collection and key must not contain '/'", ErrInvalidInput)
	}
	return nil
}
