package hdfsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/discochess/hdfsutil/internal/store"
	"github.com/discochess/hdfsutil/internal/store/cachedstore"
	"github.com/discochess/hdfsutil/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/hdfsutil/internal/store/cachedstore/memory"
	"github.com/discochess/hdfsutil/internal/store/diskstore"
	"github.com/discochess/hdfsutil/internal/store/gcsstore"
	"github.com/discochess/hdfsutil/internal/store/hdfsstore"
	"github.com/discochess/hdfsutil/internal/store/memstore"
	"github.com/discochess/hdfsutil/internal/store/s3store"
	"github.com/discochess/hdfsutil/internal/store/sftpstore"
	"github.com/discochess/hdfsutil/internal/store/smbstore"
	"github.com/discochess/hdfsutil/internal/store/webdavstore"
)

// ErrUnknownBackend indicates Config.Backend names no supported backend.
var ErrUnknownBackend = errors.New("hdfsutil: unknown backend")

// Supported values of Config.Backend.
const (
	BackendHDFS   = "hdfs"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendSFTP   = "sftp"
	BackendWebDAV = "webdav"
	BackendSMB    = "smb"
	BackendLocal  = "local"
	BackendMemory = "memory"
)

// Environment variables that override values loaded from a config file.
const (
	EnvEndpoint = "HDFSUTIL_ENDPOINT"
	EnvUser     = "HADOOP_USER_NAME"
)

// Config selects and configures the filesystem backend.
//
// Endpoint is interpreted per backend: namenode addresses for hdfs (comma
// separated for HA), a custom API endpoint for s3 and gcs, host:port for
// sftp and smb, the server URL for webdav, and the root directory for local.
type Config struct {
	// Backend is one of the Backend constants. Default is hdfs.
	Backend  string `yaml:"backend"`
	Endpoint string `yaml:"endpoint"`

	// User and Password authenticate to the backend. For s3 they are the
	// access key and secret key.
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Bucket and Region locate the bucket of the object-store backends.
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`

	// Prefix scopes object-store keys, or sets the base directory for sftp.
	Prefix string `yaml:"prefix"`

	// Share and Domain configure the smb backend.
	Share  string `yaml:"share"`
	Domain string `yaml:"domain"`

	// KeyFile is a private key for sftp or a credentials file for gcs.
	KeyFile    string `yaml:"key_file"`
	KnownHosts string `yaml:"known_hosts"`

	Timeout time.Duration `yaml:"timeout"`

	// CacheSize is the number of files kept by the read cache.
	// Zero disables the cache.
	CacheSize int `yaml:"cache_size"`

	BufferSize   int  `yaml:"buffer_size"`
	AtomicWrites bool `yaml:"atomic_writes"`
}

// LoadConfig reads a YAML config file and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields with the values of EnvEndpoint and EnvUser
// when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.User = v
	}
}

// Open connects to the backend described by cfg and returns a Client using
// it. Options are applied after the ones derived from cfg; a WithStore
// option is ignored.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	var base []Option
	if cfg.BufferSize > 0 {
		base = append(base, WithBufferSize(cfg.BufferSize))
	}
	if cfg.AtomicWrites {
		base = append(base, WithAtomicWrites())
	}
	o := resolveOptions(append(base, opts...))

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		strategy, err := lru.New(cfg.CacheSize)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("creating cache: %w", err)
		}
		st = cachedstore.New(st, memory.New(strategy, o.stats))
	}
	o.store = st

	c, err := newClient(o)
	if err != nil {
		st.Close()
		return nil, err
	}
	return c, nil
}

func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Backend {
	case "", BackendHDFS:
		var opts []hdfsstore.Option
		if cfg.User != "" {
			opts = append(opts, hdfsstore.WithUser(cfg.User))
		}
		return hdfsstore.New(cfg.Endpoint, opts...)

	case BackendS3:
		var opts []s3store.Option
		if cfg.Prefix != "" {
			opts = append(opts, s3store.WithPrefix(cfg.Prefix))
		}
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Endpoint))
		}
		if cfg.User != "" {
			opts = append(opts, s3store.WithStaticCredentials(cfg.User, cfg.Password))
		}
		return s3store.New(ctx, cfg.Bucket, opts...)

	case BackendGCS:
		var opts []gcsstore.Option
		if cfg.Prefix != "" {
			opts = append(opts, gcsstore.WithPrefix(cfg.Prefix))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, gcsstore.WithEndpoint(cfg.Endpoint))
		}
		if cfg.KeyFile != "" {
			opts = append(opts, gcsstore.WithCredentialsFile(cfg.KeyFile))
		}
		return gcsstore.New(ctx, cfg.Bucket, opts...)

	case BackendSFTP:
		var opts []sftpstore.Option
		if cfg.Password != "" {
			opts = append(opts, sftpstore.WithPassword(cfg.Password))
		}
		if cfg.KeyFile != "" {
			pem, err := os.ReadFile(cfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("reading key file: %w", err)
			}
			opts = append(opts, sftpstore.WithPrivateKey(pem))
		}
		if cfg.KnownHosts != "" {
			opts = append(opts, sftpstore.WithKnownHosts(cfg.KnownHosts))
		}
		if cfg.Prefix != "" {
			opts = append(opts, sftpstore.WithBasePath(cfg.Prefix))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, sftpstore.WithTimeout(cfg.Timeout))
		}
		return sftpstore.New(cfg.Endpoint, cfg.User, opts...)

	case BackendWebDAV:
		var opts []webdavstore.Option
		if cfg.Timeout > 0 {
			opts = append(opts, webdavstore.WithTimeout(cfg.Timeout))
		}
		return webdavstore.New(cfg.Endpoint, cfg.User, cfg.Password, opts...)

	case BackendSMB:
		var opts []smbstore.Option
		if cfg.Password != "" {
			opts = append(opts, smbstore.WithPassword(cfg.Password))
		}
		if cfg.Domain != "" {
			opts = append(opts, smbstore.WithDomain(cfg.Domain))
		}
		return smbstore.New(ctx, cfg.Endpoint, cfg.Share, cfg.User, opts...)

	case BackendLocal:
		return diskstore.New(cfg.Endpoint)

	case BackendMemory:
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
