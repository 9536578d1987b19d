package cache

import (
	"reflect"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

func NewSet[T any](prefix string) *Set[T] {
	return &Set[T]{
		prefix: prefix + ":",
		c:      cache.New(cache.NoExpiration, time.Minute*10),
	}
}

// Set is a keyed cache holding values of a single type under a shared prefix.
type Set[T any] struct {
	// m is a mutex for MutexGetSet for concurrent prevention
	m sync.Mutex

	prefix string

	c *cache.Cache
}

func (c *Set[T]) key(key string) string {
	return c.prefix + key
}

func (c *Set[T]) Get(key string, dest *T) error {
	result, ok := c.c.Get(c.key(key))
	if !ok {
		return ErrNotFound
	}
	var r reflect.Value
	if reflect.ValueOf(result).Kind() == reflect.Ptr {
		r = reflect.ValueOf(result).Elem()
	} else {
		r = reflect.ValueOf(result)
	}
	reflect.ValueOf(dest).Elem().Set(r)

	return nil
}

func (c *Set[T]) Set(key string, value T, expire time.Duration) error {
	c.c.Set(c.key(key), value, expire)
	return nil
}

func (c *Set[T]) Delete(key string) {
	c.c.Delete(c.key(key))
}

func (c *Set[T]) Clear() {
	c.c.Flush()
}

func (c *Set[T]) MutexGetSet(key string, dest *T, valueFunc func() (T, error), expire time.Duration) error {
	err := c.Get(key, dest)
	if err == nil {
		return nil
	}

	c.m.Lock()
	defer c.m.Unlock()
	err = c.Get(key, dest)
	if err == nil {
		return nil
	}

	value, err := valueFunc()
	if err != nil {
		return err
	}

	if err := c.Set(key, value, expire); err != nil {
		return err
	}

	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(value))
	return nil
}
