package benchmarks

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/ldbx-io/ldbx"
	"github.com/tecbot/gorocksdb"
	bolt "go.etcd.io/bbolt"
)

// Cached benchmark database directory
const benchCacheDir = "testdata/benchdb"

var (
	cacheMu  sync.Mutex
	ldbxEnvs = make(map[string]*ldbx.Env)
	mdbxEnvs = make(map[string]*mdbxgo.Env)
	boltDBs  = make(map[string]*bolt.DB)
	rocksDBs = make(map[string]*gorocksdb.DB)
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func benchKey(buf []byte, i int) []byte {
	binary.BigEndian.PutUint64(buf, uint64(i))
	return buf
}

// getLdbxEnv returns a cached ldbx environment pre-populated with size
// sequential 8-byte keys in a "bench" database.
func getLdbxEnv(b *testing.B, size int) *ldbx.Env {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("ldbx_%d", size)
	if env, ok := ldbxEnvs[key]; ok {
		return env
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_ldbx.db", size))
	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	env, err := ldbx.NewEnv(ldbx.Default)
	if err != nil {
		b.Fatal(err)
	}
	env.SetMaxDBs(10)
	env.SetMapSize(1 << 32)
	if err := env.Open(path, ldbx.NoSubdir|ldbx.SafeNoSync, 0644); err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached ldbx DB with %d keys...", size)
		err = env.Update(func(txn *ldbx.Txn) error {
			dbi, err := txn.OpenDBI("bench", ldbx.Create)
			if err != nil {
				return err
			}
			k := make([]byte, 8)
			v := make([]byte, 32)
			for i := 0; i < size; i++ {
				binary.BigEndian.PutUint64(v, uint64(i))
				if err := txn.Put(dbi, benchKey(k, i), v, ldbx.Append); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}

	ldbxEnvs[key] = env
	return env
}

// getMdbxEnv returns a cached mdbx-go environment with the same dataset.
func getMdbxEnv(b *testing.B, size int) *mdbxgo.Env {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("mdbx_%d", size)
	if env, ok := mdbxEnvs[key]; ok {
		return env
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_mdbx.db", size))
	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	env, err := mdbxgo.NewEnv(mdbxgo.Label("bench"))
	if err != nil {
		b.Fatal(err)
	}
	env.SetOption(mdbxgo.OptMaxDB, 10)
	env.SetGeometry(-1, -1, 1<<32, -1, -1, 4096)
	if err := env.Open(path, mdbxgo.NoSubdir|mdbxgo.SafeNoSync, 0644); err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached mdbx DB with %d keys...", size)
		err = env.Update(func(txn *mdbxgo.Txn) error {
			dbi, err := txn.OpenDBI("bench", mdbxgo.Create, nil, nil)
			if err != nil {
				return err
			}
			k := make([]byte, 8)
			v := make([]byte, 32)
			for i := 0; i < size; i++ {
				binary.BigEndian.PutUint64(v, uint64(i))
				if err := txn.Put(dbi, benchKey(k, i), v, mdbxgo.Append); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}

	mdbxEnvs[key] = env
	return env
}

// getBoltDB returns a cached bbolt database with the same dataset in a
// "bench" bucket.
func getBoltDB(b *testing.B, size int) *bolt.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("bolt_%d", size)
	if db, ok := boltDBs[key]; ok {
		return db
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_bolt.db", size))
	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	db, err := bolt.Open(path, 0644, &bolt.Options{NoSync: true})
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached bolt DB with %d keys...", size)
		err = db.Update(func(tx *bolt.Tx) error {
			bucket, err := tx.CreateBucketIfNotExists([]byte("bench"))
			if err != nil {
				return err
			}
			k := make([]byte, 8)
			v := make([]byte, 32)
			for i := 0; i < size; i++ {
				binary.BigEndian.PutUint64(v, uint64(i))
				if err := bucket.Put(benchKey(k, i), v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}

	boltDBs[key] = db
	return db
}

// getRocksDB returns a cached RocksDB instance with the same dataset.
func getRocksDB(b *testing.B, size int) *gorocksdb.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("rocks_%d", size)
	if db, ok := rocksDBs[key]; ok {
		return db
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_rocks.db", size))
	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached rocksdb DB with %d keys...", size)
		wo := gorocksdb.NewDefaultWriteOptions()
		wo.DisableWAL(true)
		k := make([]byte, 8)
		v := make([]byte, 32)
		for i := 0; i < size; i++ {
			binary.BigEndian.PutUint64(v, uint64(i))
			if err := db.Put(wo, benchKey(k, i), v); err != nil {
				b.Fatal(err)
			}
		}
		wo.Destroy()
	}

	rocksDBs[key] = db
	return db
}

func formatSize(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// shuffledOrder returns a deterministic permutation of [0, n).
func shuffledOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := int(uint64(i*17+31) % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}
