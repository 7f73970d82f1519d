package cache

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBCache is a disk-backed provider built on goleveldb.
// Prefix operations map directly onto leveldb range iterators.
type LevelDBCache struct {
	db *leveldb.DB
}

func NewLevelDBCache(path string) (LevelDBCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return LevelDBCache{}, err
	}
	return LevelDBCache{db: db}, nil
}

func (l LevelDBCache) Close() error {
	return l.db.Close()
}

func (l LevelDBCache) Get(key string) ([]byte, bool, error) {
	bytes, err := l.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bytes, true, nil
}

func (l LevelDBCache) Put(key string, bytes []byte) error {
	return l.db.Put([]byte(key), bytes, nil)
}

func (l LevelDBCache) Has(key string) bool {
	ok, err := l.db.Has([]byte(key), nil)
	return err == nil && ok
}

func (l LevelDBCache) Purge(key string) {
	l.db.Delete([]byte(key), nil)
}

func (l LevelDBCache) PurgePrefix(prefix string) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	l.db.Write(batch, nil)
}

func (l LevelDBCache) Keys(prefix string, cb func(string)) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		cb(string(iter.Key()))
	}
}
