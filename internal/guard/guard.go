package guard

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
	"github.com/cappelaere/wai-bee/internal/directory"
	"github.com/cappelaere/wai-bee/internal/session"
)

// ScholarshipInfo is one accessible scholarship as presented to callers.
type ScholarshipInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Guard makes access decisions for one verified session. It is stateless:
// every decision derives from the session snapshot and the current
// scholarship configuration.
type Guard struct {
	logger *zap.Logger
	dir    *directory.Directory
	token  *session.Token
}

// New creates a guard for a verified session
func New(logger *zap.Logger, dir *directory.Directory, token *session.Token) *Guard {
	return &Guard{
		logger: logger.Named("guard"),
		dir:    dir,
		token:  token,
	}
}

// Token returns the session snapshot this guard decides for.
func (g *Guard) Token() *session.Token {
	return g.token
}

// CanAccessScholarship reports whether the session may touch the given
// scholarship: either the wildcard is present or the id is literally listed.
func (g *Guard) CanAccessScholarship(id string) bool {
	for _, s := range g.token.Scholarships {
		if s == cnst.ScholarshipWildcard || s == id {
			return true
		}
	}
	return false
}

// FilterScholarships narrows candidate ids to those the session may access.
// Wildcard holders get the candidates back unchanged; scoped users get the
// intersection, ordered as in their own scholarship list.
func (g *Guard) FilterScholarships(candidates []string) []string {
	for _, s := range g.token.Scholarships {
		if s == cnst.ScholarshipWildcard {
			return candidates
		}
	}

	wanted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		wanted[c] = struct{}{}
	}
	filtered := make([]string, 0, len(g.token.Scholarships))
	for _, s := range g.token.Scholarships {
		if _, ok := wanted[s]; ok {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// HasPermission reports whether the session snapshot carries the permission.
func (g *Guard) HasPermission(permission string) bool {
	for _, p := range g.token.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// AccessibleScholarships enumerates the enabled scholarships the session may
// access. Wildcard holders see every enabled scholarship in configuration
// order; scoped users see their own list order, minus disabled and unknown
// entries.
func (g *Guard) AccessibleScholarships() ([]ScholarshipInfo, error) {
	src, err := g.dir.Load()
	if err != nil {
		return nil, err
	}

	var out []ScholarshipInfo
	if g.CanAccessScholarship(cnst.ScholarshipWildcard) {
		for _, sch := range src.Scholarships() {
			if sch.Enabled {
				out = append(out, ScholarshipInfo{ID: sch.ID, Name: sch.Name, ShortName: sch.ShortName})
			}
		}
		return out, nil
	}

	for _, id := range g.token.Scholarships {
		sch := src.Scholarship(id)
		if sch == nil || !sch.Enabled {
			continue
		}
		out = append(out, ScholarshipInfo{ID: sch.ID, Name: sch.Name, ShortName: sch.ShortName})
	}
	return out, nil
}

// DataRoot returns the scholarship's configured data folder. Sessions
// without access get an authorization error; an unknown scholarship id is
// not found even when nominally accessible.
func (g *Guard) DataRoot(id string) (string, error) {
	if !g.CanAccessScholarship(id) {
		return "", errorx.ErrScholarshipForbidden.WithDetail("scholarship", id)
	}
	sch, err := g.dir.Scholarship(id)
	if err != nil {
		return "", err
	}
	return sch.DataFolder, nil
}

// ValidatePath reports whether candidatePath resolves to a location inside
// the scholarship's data folder. Any resolution failure is a rejection,
// never an error; attempts are logged. This is the sole defense against
// path escape from user-supplied filenames.
func (g *Guard) ValidatePath(id, candidatePath string) bool {
	root, err := g.DataRoot(id)
	if err != nil {
		g.logger.Warn("path validation against inaccessible scholarship",
			zap.String("scholarship", id),
			zap.String("username", g.token.Username))
		return false
	}

	resolvedRoot, err := resolvePath(root)
	if err != nil {
		g.logger.Warn("failed to resolve data folder",
			zap.String("scholarship", id), zap.Error(err))
		return false
	}

	candidate := candidatePath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	resolved, err := resolvePath(candidate)
	if err != nil {
		g.logger.Warn("failed to resolve candidate path",
			zap.String("scholarship", id),
			zap.String("path", candidatePath), zap.Error(err))
		return false
	}

	if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		g.logger.Warn("path escapes data folder",
			zap.String("scholarship", id),
			zap.String("path", candidatePath),
			zap.String("username", g.token.Username))
		return false
	}
	return true
}

// resolvePath returns the absolute, symlink-resolved form of p. A path
// whose final element does not exist yet resolves through its parent, so
// not-yet-written files inside a real directory still validate.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}
