package directory

import (
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
)

// Directory loads and serves the tenant/user configuration source. The
// parsed document is cached; the cache is invalidated when the file's
// mtime or size changes, so external edits become visible on the next call.
type Directory struct {
	logger *zap.Logger
	path   string

	mu      sync.Mutex
	cached  *Source
	modTime time.Time
	size    int64
}

// New creates a directory backed by the source file at path.
func New(logger *zap.Logger, path string) *Directory {
	return &Directory{
		logger: logger.Named("directory"),
		path:   path,
	}
}

// Load returns the current configuration source, re-reading the backing
// file if it changed since the last call.
func (d *Directory) Load() (*Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := os.Stat(d.path)
	if err != nil {
		return nil, errorx.ErrInvalidConfiguration.WithDetail("reason", err.Error())
	}

	if d.cached != nil && info.ModTime().Equal(d.modTime) && info.Size() == d.size {
		return d.cached, nil
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, errorx.ErrInvalidConfiguration.WithDetail("reason", err.Error())
	}

	src, err := ParseSource(data)
	if err != nil {
		return nil, errorx.ErrInvalidConfiguration.WithDetail("reason", err.Error())
	}

	d.cached = src
	d.modTime = info.ModTime()
	d.size = info.Size()
	d.logger.Info("loaded configuration source",
		zap.String("path", d.path),
		zap.Int("users", len(src.users)),
		zap.Int("scholarships", len(src.scholarships)))

	return src, nil
}

// GetUser returns the account for username.
func (d *Directory) GetUser(username string) (*UserAccount, error) {
	src, err := d.Load()
	if err != nil {
		return nil, err
	}
	account := src.User(username)
	if account == nil {
		return nil, cnst.ErrUserNotFound
	}
	return account, nil
}

// IsEnabled reports whether the account exists and is enabled. Unknown
// users are disabled (fail closed), as are load failures.
func (d *Directory) IsEnabled(username string) bool {
	account, err := d.GetUser(username)
	if err != nil {
		if !errors.Is(err, cnst.ErrUserNotFound) {
			d.logger.Warn("enabled check failed", zap.String("username", username), zap.Error(err))
		}
		return false
	}
	return account.Enabled
}

// ResolveSecret looks up the named secret in the process environment.
func (d *Directory) ResolveSecret(passwordRef string) (string, bool) {
	if passwordRef == "" {
		return "", false
	}
	return os.LookupEnv(passwordRef)
}

// Scholarship returns the scholarship with the given id.
func (d *Directory) Scholarship(id string) (*Scholarship, error) {
	src, err := d.Load()
	if err != nil {
		return nil, err
	}
	sch := src.Scholarship(id)
	if sch == nil {
		return nil, cnst.ErrScholarshipNotFound
	}
	return sch, nil
}

// Scholarships returns every configured scholarship in document order.
func (d *Directory) Scholarships() ([]*Scholarship, error) {
	src, err := d.Load()
	if err != nil {
		return nil, err
	}
	return src.Scholarships(), nil
}
