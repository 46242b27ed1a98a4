package review

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
	"github.com/cappelaere/wai-bee/internal/directory"
)

// Record is one reviewer's score for one application. Created is set on
// first submission and preserved across overwrites; Updated always moves.
type Record struct {
	Scholarship string    `json:"scholarship"`
	WAINumber   string    `json:"wai_number"`
	Reviewer    string    `json:"reviewer"`
	Initials    string    `json:"initials"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Ledger persists reviewer scores, one JSON file per
// (scholarship, reviewer initials, application) under the scholarship's
// reviews directory.
type Ledger struct {
	logger *zap.Logger
	dir    *directory.Directory

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedger creates a review ledger backed by the scholarship directory.
func NewLedger(logger *zap.Logger, dir *directory.Directory) *Ledger {
	return &Ledger{
		logger: logger.Named("review"),
		dir:    dir,
		locks:  make(map[string]*sync.Mutex),
	}
}

// keyLock serializes writes per (scholarship, initials, wai) so concurrent
// submissions for the identical key cannot produce a torn file.
func (l *Ledger) keyLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}

func (l *Ledger) reviewsDir(scholarshipID string) (string, error) {
	sch, err := l.dir.Scholarship(scholarshipID)
	if err != nil {
		return "", err
	}
	return filepath.Join(sch.DataFolder, cnst.ReviewsDirName), nil
}

func recordFileName(waiNumber, initials string) string {
	return fmt.Sprintf("%s__%s.json", waiNumber, initials)
}

// Submit records a reviewer's score for an application, overwriting any
// previous submission while preserving its created timestamp.
func (l *Ledger) Submit(ctx context.Context, scholarshipID, waiNumber, reviewer, initials string, score int, comment string) (*Record, error) {
	if score < 1 || score > 10 {
		return nil, errorx.ErrScoreOutOfRange.WithDetail("score", score)
	}
	if waiNumber == "" || initials == "" {
		return nil, errorx.ErrInvalidInput
	}

	dir, err := l.reviewsDir(scholarshipID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, recordFileName(waiNumber, initials))
	key := scholarshipID + "/" + waiNumber + "/" + initials
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	record := &Record{
		Scholarship: scholarshipID,
		WAINumber:   waiNumber,
		Reviewer:    reviewer,
		Initials:    initials,
		Score:       score,
		Comment:     comment,
		Created:     now,
		Updated:     now,
	}

	if data, err := os.ReadFile(path); err == nil {
		var existing Record
		if err := json.Unmarshal(data, &existing); err == nil && !existing.Created.IsZero() {
			record.Created = existing.Created
		}
	}

	if err := writeFileAtomic(path, record); err != nil {
		l.logger.Error("failed to persist review record",
			zap.String("scholarship", scholarshipID),
			zap.String("wai_number", waiNumber), zap.Error(err))
		return nil, err
	}

	l.logger.Info("review recorded",
		zap.String("scholarship", scholarshipID),
		zap.String("wai_number", waiNumber),
		zap.String("initials", initials),
		zap.Int("score", score))
	return record, nil
}

// writeFileAtomic writes the record to a temp file in the target directory
// and renames it into place.
func writeFileAtomic(path string, record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".review-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// ListForReviewer returns all of one reviewer's records, optionally
// filtered to a single scholarship, most recently updated first.
func (l *Ledger) ListForReviewer(ctx context.Context, reviewer, initials, scholarshipID string) ([]Record, error) {
	var scholarshipIDs []string
	if scholarshipID != "" {
		scholarshipIDs = []string{scholarshipID}
	} else {
		all, err := l.dir.Scholarships()
		if err != nil {
			return nil, err
		}
		for _, sch := range all {
			scholarshipIDs = append(scholarshipIDs, sch.ID)
		}
	}

	var out []Record
	suffix := "__" + initials + ".json"
	for _, id := range scholarshipIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir, err := l.reviewsDir(id)
		if err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
				continue
			}
			record, err := l.readRecord(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			if record.Initials != initials {
				continue
			}
			out = append(out, *record)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Updated.After(out[j].Updated)
	})
	return out, nil
}

func (l *Ledger) readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		l.logger.Warn("skipping unreadable review record",
			zap.String("path", filepath.Base(path)), zap.Error(err))
		return nil, err
	}
	return &record, nil
}
