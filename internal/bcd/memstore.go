package bcd

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// MemStore keeps boot-configuration objects in memory. It backs dry-run
// mode, where the real store must never be touched, and tests.
type MemStore struct {
	next    int
	objects map[string]*memObject
	order   []string
}

type memObject struct {
	id          string
	description string
	values      map[string]string
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]*memObject)}
}

func (s *MemStore) newID() string {
	s.next++
	return fmt.Sprintf("{00000000-0000-0000-0000-%012d}", s.next)
}

func (s *MemStore) CloneDefault(_ context.Context, description string) (string, error) {
	id := s.newID()
	s.objects[id] = &memObject{
		id:          id,
		description: description,
		// A clone carries the source's inherited values until stripped.
		values: map[string]string{
			ValueLocale:       "en-US",
			ValueInherit:      "{globalsettings}",
			ValueDefault:      "{current}",
			ValueDisplayOrder: "{current}",
			ValueTimeout:      "30",
		},
	}
	return id, nil
}

func (s *MemStore) CreateFirmwareEntry(_ context.Context, label string) (string, error) {
	id := s.newID()
	s.objects[id] = &memObject{id: id, description: label, values: map[string]string{}}
	return id, nil
}

func (s *MemStore) SetDevice(_ context.Context, id, device string) error {
	obj, ok := s.objects[strings.ToLower(id)]
	if !ok {
		return fmt.Errorf("unknown entry %s", id)
	}
	obj.values["device"] = device
	return nil
}

func (s *MemStore) SetPath(_ context.Context, id, path string) error {
	obj, ok := s.objects[strings.ToLower(id)]
	if !ok {
		return fmt.Errorf("unknown entry %s", id)
	}
	obj.values["path"] = path
	return nil
}

func (s *MemStore) DeleteValue(_ context.Context, id, name string) error {
	obj, ok := s.objects[strings.ToLower(id)]
	if !ok {
		return fmt.Errorf("unknown entry %s", id)
	}
	delete(obj.values, name)
	return nil
}

func (s *MemStore) AddFirstDisplayOrder(_ context.Context, id string) error {
	id = strings.ToLower(id)
	if _, ok := s.objects[id]; !ok {
		return fmt.Errorf("unknown entry %s", id)
	}
	s.order = append([]string{id}, s.order...)
	return nil
}

func (s *MemStore) Enumerate(_ context.Context) ([]Entry, error) {
	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, Entry{ID: id, Body: s.objects[id].render()})
	}
	return entries, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	id = strings.ToLower(id)
	if _, ok := s.objects[id]; !ok {
		return fmt.Errorf("unknown entry %s", id)
	}
	delete(s.objects, id)

	order := s.order[:0]
	for _, o := range s.order {
		if o != id {
			order = append(order, o)
		}
	}
	s.order = order
	return nil
}

// DisplayOrder exposes the firmware display order for assertions.
func (s *MemStore) DisplayOrder() []string {
	return append([]string(nil), s.order...)
}

// Values exposes an object's values for assertions.
func (s *MemStore) Values(id string) map[string]string {
	obj, ok := s.objects[strings.ToLower(id)]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj.values))
	for k, v := range obj.values {
		out[k] = v
	}
	return out
}

func (o *memObject) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "identifier %s\n", o.id)
	fmt.Fprintf(&b, "description %s\n", o.description)

	names := make([]string, 0, len(o.values))
	for name := range o.values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s %s\n", name, o.values[name])
	}
	return b.String()
}
