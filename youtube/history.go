package youtube

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"moul.io/zapgorm2"
)

type History struct {
	db *gorm.DB
}

type HistoryEntry struct {
	URL          string    `gorm:"primaryKey" json:"url"`
	Title        string    `json:"title"`
	FileName     string    `json:"file_name"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

func NewHistory(dsn string) (*History, error) {
	log := zapgorm2.New(zap.L())
	log.IgnoreRecordNotFoundError = true
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&HistoryEntry{})
	if err != nil {
		return nil, err
	}

	return &History{db: db}, nil
}

func (h *History) Save(entry *HistoryEntry) error {
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now()
	}
	return h.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(entry).Error
}

func (h *History) IsDownloaded(url string) (ok bool, err error) {
	var entry HistoryEntry
	err = h.db.First(&entry, "url = ?", url).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}
	} else {
		ok = true
	}
	return
}

// FilterDownloaded drops URLs already present in the history,
// preserving input order.
func (h *History) FilterDownloaded(urls []string) ([]string, error) {
	remaining := make([]string, 0, len(urls))
	for _, url := range urls {
		ok, err := h.IsDownloaded(url)
		if err != nil {
			return nil, err
		}
		if ok {
			zap.S().Infof("Skip already downloaded %s", url)
			continue
		}
		remaining = append(remaining, url)
	}
	return remaining, nil
}
