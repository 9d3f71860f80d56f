package ssh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lambdacloud/internal/config"
	"lambdacloud/internal/logging"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const etcdKeyPrefix = "/lambdacloud/ssh_keys/"

// ErrKeyNotFound is returned when no private key is stored under a name
var ErrKeyNotFound = errors.New("private key not found")

// KeyStore keeps private keys of server-generated SSH key pairs.
// The API returns a generated private key only once, so it has to be kept locally.
type KeyStore interface {
	// Save stores the private key for the named SSH key
	Save(ctx context.Context, name, privateKey string) error
	// Get returns the private key for the named SSH key
	Get(ctx context.Context, name string) (string, error)
	// Delete removes the private key for the named SSH key
	Delete(ctx context.Context, name string) error
	// Close closes any connections
	Close() error
}

// ValidateKeyName reports whether name can be used as a key store entry
func ValidateKeyName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid key name: %q", name)
	}
	return nil
}

// EtcdKeyStore stores private keys in etcd
type EtcdKeyStore struct {
	client *clientv3.Client
}

// NewEtcdKeyStore creates a new etcd-based key store
func NewEtcdKeyStore(endpoints []string) (*EtcdKeyStore, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &EtcdKeyStore{client: cli}, nil
}

// Save stores the private key in etcd
func (s *EtcdKeyStore) Save(ctx context.Context, name, privateKey string) error {
	if err := ValidateKeyName(name); err != nil {
		return err
	}
	if _, err := s.client.Put(ctx, etcdKeyPrefix+name, privateKey); err != nil {
		return fmt.Errorf("failed to save private key to etcd: %w", err)
	}
	return nil
}

// Get reads the private key from etcd
func (s *EtcdKeyStore) Get(ctx context.Context, name string) (string, error) {
	if err := ValidateKeyName(name); err != nil {
		return "", err
	}
	resp, err := s.client.Get(ctx, etcdKeyPrefix+name)
	if err != nil {
		return "", fmt.Errorf("failed to get private key from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return "", ErrKeyNotFound
	}
	return string(resp.Kvs[0].Value), nil
}

// Delete removes the private key from etcd
func (s *EtcdKeyStore) Delete(ctx context.Context, name string) error {
	if err := ValidateKeyName(name); err != nil {
		return err
	}
	if _, err := s.client.Delete(ctx, etcdKeyPrefix+name); err != nil {
		return fmt.Errorf("failed to delete private key from etcd: %w", err)
	}
	return nil
}

// Close closes the etcd client
func (s *EtcdKeyStore) Close() error {
	return s.client.Close()
}

// FileKeyStore writes private keys to files in a directory
type FileKeyStore struct {
	dir string
}

// NewFileKeyStore creates a key store rooted at dir
func NewFileKeyStore(dir string) *FileKeyStore {
	return &FileKeyStore{dir: dir}
}

func (s *FileKeyStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes the private key with 0600 permissions
func (s *FileKeyStore) Save(ctx context.Context, name, privateKey string) error {
	if err := ValidateKeyName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(s.path(name), []byte(privateKey), 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}

// Get reads the private key file
func (s *FileKeyStore) Get(ctx context.Context, name string) (string, error) {
	if err := ValidateKeyName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}
	return string(data), nil
}

// Delete removes the private key file
func (s *FileKeyStore) Delete(ctx context.Context, name string) error {
	if err := ValidateKeyName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove private key: %w", err)
	}
	return nil
}

// Close is a no-op for the file store
func (s *FileKeyStore) Close() error {
	return nil
}

// InMemoryKeyStore keeps keys for the lifetime of the process
type InMemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewInMemoryKeyStore creates a new in-memory key store
func NewInMemoryKeyStore() *InMemoryKeyStore {
	return &InMemoryKeyStore{keys: make(map[string]string)}
}

func (s *InMemoryKeyStore) Save(ctx context.Context, name, privateKey string) error {
	if err := ValidateKeyName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[name] = privateKey
	return nil
}

func (s *InMemoryKeyStore) Get(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[name]
	if !ok {
		return "", ErrKeyNotFound
	}
	return key, nil
}

func (s *InMemoryKeyStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, name)
	return nil
}

func (s *InMemoryKeyStore) Close() error {
	return nil
}

// NewKeyStore creates the key store selected by the configuration.
// etcd is used when endpoints are configured and reachable, otherwise keys go to the key directory.
func NewKeyStore(cfg config.KeyStoreConfig) KeyStore {
	if len(cfg.EtcdEndpoints) == 0 {
		logging.Logger().Debug("No etcd endpoints configured, using file key store",
			zap.String("dir", cfg.Dir))
		return NewFileKeyStore(cfg.Dir)
	}

	store, err := NewEtcdKeyStore(cfg.EtcdEndpoints)
	if err != nil {
		logging.Logger().Warn("Failed to connect to etcd, falling back to file key store",
			zap.Error(err))
		return NewFileKeyStore(cfg.Dir)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := store.client.Get(ctx, etcdKeyPrefix); err != nil {
		logging.Logger().Warn("etcd connection test failed, falling back to file key store",
			zap.Error(err))
		store.Close()
		return NewFileKeyStore(cfg.Dir)
	}

	logging.Logger().Info("Connected to etcd for private key storage",
		zap.Strings("endpoints", cfg.EtcdEndpoints))
	return store
}
