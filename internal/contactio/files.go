package contactio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/elit-parking/campaign-cli/internal/model"
)

const (
	preparedPrefix = "prepared_contacts_"
	resultsPrefix  = "campaign_results_"
	timestampFmt   = "20060102_150405"
)

// ErrNoPrepared is returned by LatestPrepared when dir holds no prepared file.
var ErrNoPrepared = eris.New("contactio: no prepared contacts file")

// PreparedPath returns the prepared file name for a run at now.
func PreparedPath(dir string, now time.Time) string {
	return filepath.Join(dir, preparedPrefix+now.Format(timestampFmt)+".csv")
}

// WritePrepared writes contacts to a timestamped CSV in dir, creating dir if
// needed, and returns the file path.
func WritePrepared(dir string, contacts []model.CleanContact, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "contactio: create %s", dir)
	}

	path := PreparedPath(dir, now)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "contactio: create %s", path)
	}

	if err := WriteCSV(f, contacts); err != nil {
		f.Close() //nolint:errcheck
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "contactio: close %s", path)
	}
	return path, nil
}

// LatestPrepared returns the newest prepared file in dir. Timestamped names
// sort chronologically.
func LatestPrepared(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, preparedPrefix+"*.csv"))
	if err != nil {
		return "", eris.Wrap(err, "contactio: glob prepared files")
	}
	if len(matches) == 0 {
		return "", eris.Wrapf(ErrNoPrepared, "contactio: search %s", dir)
	}
	return slices.Max(matches), nil
}

// Results is the record of one send run. Only the group summaries are
// written: the JSON document is an object keyed group_<label>, each value a
// BatchSummary. The run metadata stays in memory for logging.
type Results struct {
	RunID     string
	Campaign  string
	TestMode  bool
	StartedAt time.Time
	Groups    map[string]*model.BatchSummary
}

// NewResults starts a run record with a fresh run ID.
func NewResults(campaign string, testMode bool, startedAt time.Time) *Results {
	return &Results{
		RunID:     uuid.NewString(),
		Campaign:  campaign,
		TestMode:  testMode,
		StartedAt: startedAt,
		Groups:    map[string]*model.BatchSummary{},
	}
}

// Add records the summary for a group under the key group_<label>.
func (r *Results) Add(group string, s *model.BatchSummary) {
	r.Groups["group_"+group] = s
}

// MarshalJSON encodes the group summaries as the top-level object.
func (r *Results) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Groups)
}

// WriteResults writes r to a timestamped JSON file in dir and returns its path.
func WriteResults(dir string, r *Results, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "contactio: create %s", dir)
	}

	data, err := json.MarshalIndent(r.Groups, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "contactio: marshal results")
	}

	path := filepath.Join(dir, resultsPrefix+now.Format(timestampFmt)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "contactio: write %s", path)
	}
	return path, nil
}
