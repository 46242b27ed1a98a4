package review

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
)

// SummaryRow is one application's aggregated review scores.
type SummaryRow struct {
	WAINumber   string         `json:"wai_number"`
	ReviewCount int            `json:"review_count"`
	TotalScore  int            `json:"total_score"`
	Scores      map[string]int `json:"scores"` // reviewer initials -> score
}

// Aggregate re-scans every review record for the scholarship, groups by
// application, and persists the ranked summary as a CSV at the fixed
// reviews location. It returns the summary path, the row count and the rows.
func (l *Ledger) Aggregate(ctx context.Context, scholarshipID string) (string, int, []SummaryRow, error) {
	dir, err := l.reviewsDir(scholarshipID)
	if err != nil {
		return "", 0, nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, nil, cnst.ErrNoReviews
		}
		return "", 0, nil, err
	}

	byApplication := make(map[string]*SummaryRow)
	initialsSet := make(map[string]struct{})
	found := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", 0, nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		record, err := l.readRecord(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		found++

		row, ok := byApplication[record.WAINumber]
		if !ok {
			row = &SummaryRow{
				WAINumber: record.WAINumber,
				Scores:    make(map[string]int),
			}
			byApplication[record.WAINumber] = row
		}
		row.ReviewCount++
		row.TotalScore += record.Score
		row.Scores[record.Initials] = record.Score
		initialsSet[record.Initials] = struct{}{}
	}

	if found == 0 {
		return "", 0, nil, cnst.ErrNoReviews
	}

	rows := make([]SummaryRow, 0, len(byApplication))
	for _, row := range byApplication {
		rows = append(rows, *row)
	}
	// Highest total first; equal totals rank the later wai number first.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].WAINumber > rows[j].WAINumber
	})

	initials := make([]string, 0, len(initialsSet))
	for ini := range initialsSet {
		initials = append(initials, ini)
	}
	sort.Strings(initials)

	summaryPath := filepath.Join(dir, cnst.ReviewSummaryName)
	if err := writeSummary(summaryPath, rows, initials); err != nil {
		l.logger.Error("failed to persist review summary",
			zap.String("scholarship", scholarshipID), zap.Error(err))
		return "", 0, nil, err
	}

	l.logger.Info("review summary written",
		zap.String("scholarship", scholarshipID),
		zap.Int("rows", len(rows)),
		zap.Int("reviewers", len(initials)))
	return summaryPath, len(rows), rows, nil
}

func writeSummary(path string, rows []SummaryRow, initials []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"wai_number", "review_count", "total_score"}
	for _, ini := range initials {
		header = append(header, "score_"+ini)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.WAINumber,
			strconv.Itoa(row.ReviewCount),
			strconv.Itoa(row.TotalScore),
		}
		for _, ini := range initials {
			if score, ok := row.Scores[ini]; ok {
				record = append(record, strconv.Itoa(score))
			} else {
				record = append(record, "")
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
