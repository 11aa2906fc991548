// Package dbdriver provides a local key-value database for dlsim state.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package dbdriver

import (
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

const MemoryPath = ":memory:"

type BuntDriver struct {
	driver *buntdb.DB
}

// interface guard
var _ Driver = (*BuntDriver)(nil)

// NewBuntDB opens (or creates) the database at `path`; every committed
// transaction is fsync-ed (write-through).
func NewBuntDB(path string) (*BuntDriver, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}
	var cfg buntdb.Config
	if err = db.ReadConfig(&cfg); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "read config %q", path)
	}
	cfg.SyncPolicy = buntdb.Always
	if err = db.SetConfig(cfg); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "set config %q", path)
	}
	return &BuntDriver{driver: db}, nil
}

func bunt2dberr(collection, key string, err error) error {
	if err == buntdb.ErrNotFound {
		return NewErrNotFound(collection, key)
	}
	return err
}

func (bd *BuntDriver) Close() error {
	return bd.driver.Close()
}

func (bd *BuntDriver) Set(collection, key string, object any) error {
	b, err := jsoniter.Marshal(object)
	if err != nil {
		return errors.Wrapf(err, "marshal %s/%s", collection, key)
	}
	return bd.SetString(collection, key, string(b))
}

func (bd *BuntDriver) Get(collection, key string, object any) error {
	s, err := bd.GetString(collection, key)
	if err != nil {
		return err
	}
	if err := jsoniter.UnmarshalFromString(s, object); err != nil {
		return errors.Wrapf(err, "unmarshal %s/%s", collection, key)
	}
	return nil
}

func (bd *BuntDriver) SetString(collection, key, data string) error {
	name := makePath(collection, key)
	err := bd.driver.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(name, data, nil)
		return err
	})
	return bunt2dberr(collection, key, err)
}

func (bd *BuntDriver) GetString(collection, key string) (string, error) {
	var (
		value string
		name  = makePath(collection, key)
	)
	err := bd.driver.View(func(tx *buntdb.Tx) error {
		var err error
		value, err = tx.Get(name)
		return err
	})
	return value, bunt2dberr(collection, key, err)
}

func (bd *BuntDriver) Delete(collection, key string) error {
	name := makePath(collection, key)
	err := bd.driver.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(name)
		return err
	})
	return bunt2dberr(collection, key, err)
}

func (bd *BuntDriver) List(collection, prefix string) ([]string, error) {
	all, err := bd.GetAll(collection, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (bd *BuntDriver) GetAll(collection, prefix string) (map[string]string, error) {
	var (
		values = make(map[string]string)
		filter = makePath(collection, prefix)
	)
	err := bd.driver.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(filter+"*", func(k, v string) bool {
			if !strings.HasPrefix(k, filter) {
				return true
			}
			if _, key := ParsePath(k); key != "" {
				values[key] = v
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
