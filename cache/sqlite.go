package cache

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteCache creates a new cache with the given filename as the db.
// If the file name is empty, a new in-memory db is opened.
func NewSQLiteCache(filename string) SQLiteCache {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS bucket (
		key TEXT PRIMARY KEY,
		stored_at INTEGER,
		bytes BLOB
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLiteCache) Get(key string) ([]byte, bool, error) {
	var bytes []byte
	err := s.db.QueryRow("SELECT bytes FROM bucket WHERE key = ?", key).Scan(&bytes)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bytes, true, nil
}

func (s SQLiteCache) Put(key string, bytes []byte) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO bucket (key, stored_at, bytes) VALUES (?, ?, ?)",
		key, time.Now().Unix(), bytes)
	return err
}

func (s SQLiteCache) Has(key string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM bucket WHERE key = ?", key).Scan(&one)
	return err == nil
}

func (s SQLiteCache) Purge(key string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	s.db.Exec("DELETE FROM bucket WHERE key = ?", key)
}

func (s SQLiteCache) PurgePrefix(prefix string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	s.db.Exec("DELETE FROM bucket WHERE key LIKE ?", prefix+"%")
}

func (s SQLiteCache) Keys(prefix string, cb func(string)) {
	rows, err := s.db.Query("SELECT key FROM bucket WHERE key LIKE ?", prefix+"%")
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return
		}
		cb(key)
	}
}
