// Package store persists the pool's ledger across restarts. It keeps two
// bbolt buckets: the latest engine snapshot, and an append-only history of
// settlement claim events keyed by claim sequence number in big-endian so
// range scans return claims in order.
package store

import (
	"math/big"
	"os"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/rony4d/go-opera-pool/inter"
	"github.com/rony4d/go-opera-pool/pool/engine"
)

var (
	bucketSnapshot = []byte("snapshot")
	bucketClaims   = []byte("claims")

	keyState = []byte("state")
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been saved yet.
var ErrNoSnapshot = errors.New("store: no snapshot")

// Store wraps a bbolt database holding the pool's persisted state.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at dbPath. The parent directory is
// created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, errors.Wrap(err, "store: create directory")
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "store: open bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSnapshot, bucketClaims} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "store: create bucket %q", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveSnapshot overwrites the persisted engine snapshot.
func (s *Store) SaveSnapshot(snap *engine.Snapshot) error {
	data, err := rlp.EncodeToBytes(snap)
	if err != nil {
		return errors.Wrap(err, "store: encode snapshot")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return errors.Wrap(tx.Bucket(bucketSnapshot).Put(keyState, data), "store: put snapshot")
	})
}

// LoadSnapshot reads the persisted engine snapshot, or ErrNoSnapshot if the
// store is fresh.
func (s *Store) LoadSnapshot() (*engine.Snapshot, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketSnapshot).Get(keyState); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: read snapshot")
	}
	if data == nil {
		return nil, ErrNoSnapshot
	}
	snap := new(engine.Snapshot)
	if err := rlp.DecodeBytes(data, snap); err != nil {
		return nil, errors.Wrap(err, "store: decode snapshot")
	}
	return snap, nil
}

// claimRLP is the wire form of a claim history record.
type claimRLP struct {
	Seq         uint64
	Epoch       uint64
	EpochIDs    []uint64
	Total       []byte
	Fee         []byte
	Distributed []byte
}

// AppendClaim records one settlement event at its sequence number.
func (s *Store) AppendClaim(res *engine.ClaimResult) error {
	rec := claimRLP{
		Seq:         res.Seq,
		Epoch:       uint64(res.Epoch),
		EpochIDs:    res.EpochIDs,
		Total:       res.Total.Bytes(),
		Fee:         res.Fee.Bytes(),
		Distributed: res.Distributed.Bytes(),
	}
	data, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return errors.Wrap(err, "store: encode claim")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		key := bigendian.Uint64ToBytes(res.Seq)
		return errors.Wrap(tx.Bucket(bucketClaims).Put(key, data), "store: put claim")
	})
}

// Claims returns the recorded claim events with sequence numbers in
// [from, to], in order. An empty range yields an empty slice.
func (s *Store) Claims(from, to uint64) ([]engine.ClaimResult, error) {
	var out []engine.ClaimResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketClaims).Cursor()
		for k, v := c.Seek(bigendian.Uint64ToBytes(from)); k != nil; k, v = c.Next() {
			if bigendian.BytesToUint64(k) > to {
				break
			}
			var rec claimRLP
			if err := rlp.DecodeBytes(v, &rec); err != nil {
				return errors.Wrap(err, "store: decode claim")
			}
			out = append(out, rec.toResult())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LastClaimSeq returns the highest recorded claim sequence, or zero when
// the history is empty.
func (s *Store) LastClaimSeq() (uint64, error) {
	var seq uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if k, _ := tx.Bucket(bucketClaims).Cursor().Last(); k != nil {
			seq = bigendian.BytesToUint64(k)
		}
		return nil
	})
	return seq, errors.Wrap(err, "store: read claim cursor")
}

func (r claimRLP) toResult() engine.ClaimResult {
	return engine.ClaimResult{
		Seq:         r.Seq,
		Epoch:       inter.Epoch(r.Epoch),
		EpochIDs:    r.EpochIDs,
		Total:       bytesToBig(r.Total),
		Fee:         bytesToBig(r.Fee),
		Distributed: bytesToBig(r.Distributed),
	}
}

func bytesToBig(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
