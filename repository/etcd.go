package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Key-space constants. All cliplink keys live under /cliplink/v1/ to avoid
// collisions with other etcd tenants.
const (
	keyPrefix      = "/cliplink/v1"
	requestTimeout = 5 * time.Second
)

// etcdKey builds the etcd key for a clip. The identity is an OpenSSH
// authorized-key line containing '/' and '+' characters, so it is hashed
// rather than embedded in the key path.
func etcdKey(identity, clip string) string {
	sum := sha256.Sum256([]byte(identity))
	return fmt.Sprintf("%s/%s/%s", keyPrefix, hex.EncodeToString(sum[:]), clip)
}

// Etcd is an etcd-backed Repository for deployments where several server
// instances share one clip store. etcd serializes reads and writes, so
// concurrent sessions addressing the same identity are safe.
type Etcd struct {
	client *clientv3.Client
}

// NewEtcd dials the etcd cluster at endpoints. The caller must call Close
// when finished.
func NewEtcd(endpoints []string) (*Etcd, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: requestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd dial: %w", err)
	}
	return &Etcd{client: client}, nil
}

// Get returns the payload stored under (identity, clip), or ErrNotFound.
func (r *Etcd) Get(identity, clip string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	key := etcdKey(identity, clip)
	resp, err := r.client.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("etcd get %q: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

// Patch creates or overwrites the payload under (identity, clip).
func (r *Etcd) Patch(identity, clip string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	key := etcdKey(identity, clip)
	if _, err := r.client.Put(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("etcd put %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying etcd client connection.
func (r *Etcd) Close() error {
	return r.client.Close()
}
