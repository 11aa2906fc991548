// Package dbdriver provides a local key-value database for dlsim state.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dbdriver

import (
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

type DBMock struct {
	values map[string]string
	mtx    sync.RWMutex
}

// interface guard
var _ Driver = (*DBMock)(nil)

func NewDBMock() *DBMock     { return &DBMock{values: make(map[string]string)} }
func (*DBMock) Close() error { return nil }

func (bd *DBMock) Set(collection, key string, object any) error {
	b, err := jsoniter.Marshal(object)
	if err != nil {
		return err
	}
	return bd.SetString(collection, key, string(b))
}

func (bd *DBMock) Get(collection, key string, object any) error {
	s, err := bd.GetString(collection, key)
	if err != nil {
		return err
	}
	return jsoniter.UnmarshalFromString(s, object)
}

func (bd *DBMock) SetString(collection, key, data string) error {
	bd.mtx.Lock()
	bd.values[makePath(collection, key)] = data
	bd.mtx.Unlock()
	return nil
}

func (bd *DBMock) GetString(collection, key string) (string, error) {
	bd.mtx.RLock()
	defer bd.mtx.RUnlock()
	value, ok := bd.values[makePath(collection, key)]
	if !ok {
		return "", NewErrNotFound(collection, key)
	}
	return value, nil
}

func (bd *DBMock) Delete(collection, key string) error {
	bd.mtx.Lock()
	defer bd.mtx.Unlock()
	name := makePath(collection, key)
	if _, ok := bd.values[name]; !ok {
		return NewErrNotFound(collection, key)
	}
	delete(bd.values, name)
	return nil
}

func (bd *DBMock) List(collection, prefix string) ([]string, error) {
	all, _ := bd.GetAll(collection, prefix)
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (bd *DBMock) GetAll(collection, prefix string) (map[string]string, error) {
	var (
		values = make(map[string]string)
		filter = makePath(collection, prefix)
	)
	bd.mtx.RLock()
	defer bd.mtx.RUnlock()
	for k, v := range bd.values {
		if strings.HasPrefix(k, filter) {
			if _, key := ParsePath(k); key != "" {
				values[key] = v
			}
		}
	}
	return values, nil
}
