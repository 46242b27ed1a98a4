package scores

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
)

// Aggregator computes score views over one scholarship's data folder.
type Aggregator struct {
	logger *zap.Logger
	root   string
}

// New creates an aggregator scoped to the scholarship data folder at root.
func New(logger *zap.Logger, root string) *Aggregator {
	return &Aggregator{
		logger: logger.Named("scores"),
		root:   root,
	}
}

// ListApplicationIDs returns the sorted wai numbers of every application
// directory under the data folder that carries an analysis artifact.
func (a *Aggregator) ListApplicationIDs() ([]string, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.root, entry.Name(), cnst.AnalysisFileName)); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AllScores returns the normalized scores of every application. A tenant
// level scores.csv is authoritative when present; otherwise each
// application's analysis artifact is read individually.
func (a *Aggregator) AllScores(ctx context.Context) ([]ApplicationScore, error) {
	summaryPath := filepath.Join(a.root, cnst.ScoresFileName)
	if _, err := os.Stat(summaryPath); err == nil {
		return a.readSummary(summaryPath)
	}
	return a.scanApplications(ctx)
}

// readSummary parses the tabular fast-path file. Column order follows the
// header row, not a fixed position.
func (a *Aggregator) readSummary(path string) ([]ApplicationScore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []ApplicationScore
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		score := ApplicationScore{
			WAINumber:     field(row, "wai_number"),
			ApplicantName: field(row, "applicant_name"),
		}
		if score.WAINumber == "" {
			continue
		}

		var convErr error
		number := func(name string) int {
			n, err := strconv.Atoi(field(row, name))
			if err != nil && convErr == nil {
				convErr = err
			}
			return n
		}
		score.Completeness = number("completeness_score")
		score.Validity = number("validity_score")
		score.Attachment = number("attachment_score")
		score.Overall = number("final_score")
		score.Complete, _ = strconv.ParseBool(field(row, "complete"))

		if convErr != nil {
			a.logger.Warn("skipping summary row with malformed score",
				zap.String("wai_number", score.WAINumber), zap.Error(convErr))
			continue
		}
		if err := score.validate(); err != nil {
			a.logger.Warn("skipping invalid summary row", zap.Error(err))
			continue
		}
		out = append(out, score)
	}
	return out, nil
}

// scanApplications walks every application directory and normalizes each
// analysis artifact. Unreadable or malformed artifacts are logged and
// skipped rather than failing the whole scan.
func (a *Aggregator) scanApplications(ctx context.Context) ([]ApplicationScore, error) {
	ids, err := a.ListApplicationIDs()
	if err != nil {
		return nil, err
	}

	out := make([]ApplicationScore, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(a.root, id, cnst.AnalysisFileName))
		if err != nil {
			a.logger.Warn("failed to read analysis artifact",
				zap.String("wai_number", id), zap.Error(err))
			continue
		}
		score, err := ParseAnalysis(id, data)
		if err != nil {
			a.logger.Warn("failed to normalize analysis artifact",
				zap.String("wai_number", id), zap.Error(err))
			continue
		}
		out = append(out, *score)
	}
	return out, nil
}

// TopScores returns the limit highest-scoring applications. Ties on the
// overall score break by ascending wai number.
func (a *Aggregator) TopScores(ctx context.Context, limit int) ([]ApplicationScore, error) {
	if limit < 1 || limit > 100 {
		return nil, errorx.ErrInvalidLimit.WithDetail("limit", limit)
	}

	all, err := a.AllScores(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Overall != all[j].Overall {
			return all[i].Overall > all[j].Overall
		}
		return all[i].WAINumber < all[j].WAINumber
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
