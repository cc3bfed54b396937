package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/casper-ecosystem/casper-client-go/types"
)

// bucket feature currently not used, one store file holds one deploy set
const defaultBucket = "deploys"

// DeployStore is a local record of deploys the client has constructed or
// submitted, keyed by deploy hash. Values are stored in the deploy's binary
// CBOR encoding.
type DeployStore struct {
	db     *bolt.DB
	bucket []byte
}

var errNotFound = errors.New("db entry not found")

// New opens (or creates) a deploy store backed by the given Bolt DB file.
func New(dbFile string) (*DeployStore, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	s := &DeployStore{
		db:     db,
		bucket: []byte(defaultBucket),
	}
	if err = s.createBuckets(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return s, nil
}

func (s *DeployStore) Path() string {
	return s.db.Path()
}

func (s *DeployStore) createBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
}

// Put stores the deploy under its hash. An existing record for the same
// hash is overwritten, which after re-signing keeps the latest approvals.
func (s *DeployStore) Put(d *types.Deploy) error {
	if d == nil {
		return fmt.Errorf("deploy is nil")
	}
	b, err := cbor.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding deploy: %w", err)
	}
	if err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(d.Hash[:], b)
	}); err != nil {
		return fmt.Errorf("bolt db write failed, %w", err)
	}
	return nil
}

// Get loads the deploy stored under the given hash. The second return value
// reports whether a record was found.
func (s *DeployStore) Get(hash types.Digest) (*types.Deploy, bool, error) {
	d := &types.Deploy{}
	if err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(s.bucket).Get(hash[:])
		if data == nil {
			return errNotFound
		}
		return cbor.Unmarshal(data, d)
	}); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("bolt db read failed, %w", err)
	}
	return d, true, nil
}

func (s *DeployStore) Delete(hash types.Digest) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(hash[:])
	}); err != nil {
		return fmt.Errorf("bolt db delete failed, %w", err)
	}
	return nil
}

// Each calls fn for every stored deploy, in deploy hash order. Iteration
// stops at the first error.
func (s *DeployStore) Each(fn func(*types.Deploy) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			d := &types.Deploy{}
			if err := cbor.Unmarshal(v, d); err != nil {
				return fmt.Errorf("decoding deploy %x: %w", k, err)
			}
			return fn(d)
		})
	})
}

func (s *DeployStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
