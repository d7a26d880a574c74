package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

// Run is one entry of the report index.
type Run struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Strategy string    `json:"strategy"`
	Time     time.Time `json:"time"`

	// ReportFile is the summary report path relative to the output directory.
	ReportFile string `json:"reportFile"`
}

// ReportIndex lists the runs recorded in an output directory. Concurrent
// writers (the optimizer) serialize through a file lock.
type ReportIndex struct {
	Runs []Run `json:"runs,omitempty"`
}

func getReportIndexPath(outputDirectory string) string {
	return filepath.Join(outputDirectory, "index.json")
}

func LoadReportIndex(outputDirectory string) (*ReportIndex, error) {
	indexFile := getReportIndexPath(outputDirectory)
	indexLock := flock.New(indexFile + ".lock")

	if err := indexLock.Lock(); err != nil {
		log.WithError(err).Errorf("report index file lock error while load report")
		return nil, err
	}
	defer func() {
		if err := indexLock.Unlock(); err != nil {
			log.WithError(err).Errorf("report index file unlock error while load report")
		}
	}()

	return loadReportIndexLocked(indexFile)
}

// AddReportIndexRun appends a run to the index under the file lock.
func AddReportIndexRun(outputDirectory string, run Run) error {
	indexFile := getReportIndexPath(outputDirectory)
	indexLock := flock.New(indexFile + ".lock")

	if err := indexLock.Lock(); err != nil {
		log.WithError(err).Errorf("report index file lock error")
		return err
	}
	defer func() {
		if err := indexLock.Unlock(); err != nil {
			log.WithError(err).Errorf("report index file unlock error")
		}
	}()

	reportIndex, err := loadReportIndexLocked(indexFile)
	if err != nil {
		return err
	}

	reportIndex.Runs = append(reportIndex.Runs, run)
	return writeReportIndexLocked(indexFile, reportIndex)
}

func loadReportIndexLocked(indexFile string) (*ReportIndex, error) {
	var reportIndex ReportIndex
	if _, err := os.Stat(indexFile); err == nil {
		o, err := os.ReadFile(indexFile)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(o, &reportIndex); err != nil {
			return nil, err
		}
	}

	return &reportIndex, nil
}

func writeReportIndexLocked(indexFile string, reportIndex *ReportIndex) error {
	out, err := json.MarshalIndent(reportIndex, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(indexFile, out, 0644)
}
