package store

import "context"

// scoped routes a fixed set of keys to prefix+key and passes the rest straight
// through. The HTTP layer gives each browser session its own view this way:
// the session marker and preferences are per session, everything else shared.
type scoped struct {
	base   Store
	prefix string
	keys   map[string]struct{}
}

// Scoped returns a view of base in which only keys are namespaced under prefix.
// Closing the view does not close base.
func Scoped(base Store, prefix string, keys ...string) Store {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &scoped{base: base, prefix: prefix, keys: set}
}

func (s *scoped) resolve(key string) string {
	if _, ok := s.keys[key]; ok {
		return s.prefix + key
	}
	return key
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.base.Get(ctx, s.resolve(key))
}

func (s *scoped) Put(ctx context.Context, key string, value []byte) error {
	return s.base.Put(ctx, s.resolve(key), value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.base.Delete(ctx, s.resolve(key))
}

func (s *scoped) Ping(ctx context.Context) error {
	return Ping(ctx, s.base)
}

func (s *scoped) Close() error {
	return nil
}
