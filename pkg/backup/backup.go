package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/renningen-dev/bobbervox/pkg/logger"
	"github.com/renningen-dev/bobbervox/pkg/storage"
)

// Config controls the scheduled database backup.
type Config struct {
	// Schedule is a cron expression, e.g. "0 3 * * *".
	Schedule string
	DBDriver string
	DSN      string
	// Path is the local directory backup files are written to.
	Path string
}

// Scheduler runs periodic database backups and optionally mirrors them to
// an object store.
type Scheduler struct {
	cfg     Config
	cron    *cron.Cron
	offsite storage.Store
}

func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg, cron: cron.New()}
}

// WithOffsiteStore mirrors each backup file to the given store after the
// local copy succeeds.
func (s *Scheduler) WithOffsiteStore(store storage.Store) *Scheduler {
	s.offsite = store
	return s
}

// Start registers the cron job and begins scheduling.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if err := s.Run(context.Background()); err != nil {
			logger.Warn("database backup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Run executes one backup immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	stamp := time.Now().Format("20060102_150405")

	var dst string
	var err error
	switch s.cfg.DBDriver {
	case "sqlite", "":
		dst = filepath.Join(s.cfg.Path, fmt.Sprintf("bobbervox_backup_%s.db", stamp))
		err = backupSQLite(s.cfg.DSN, dst)
	case "mysql":
		dst = filepath.Join(s.cfg.Path, fmt.Sprintf("bobbervox_backup_%s.sql", stamp))
		err = backupMySQL(ctx, s.cfg.DSN, dst)
	default:
		return fmt.Errorf("unsupported DB_DRIVER for backup: %s", s.cfg.DBDriver)
	}
	if err != nil {
		return err
	}
	logger.Info("database backup written", zap.String("path", dst))

	if s.offsite != nil {
		if err := s.uploadOffsite(ctx, dst); err != nil {
			return fmt.Errorf("offsite upload: %w", err)
		}
		logger.Info("database backup uploaded", zap.String("key", filepath.Base(dst)))
	}
	return nil
}

func backupSQLite(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open database file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy database file: %w", err)
	}
	return out.Sync()
}

func backupMySQL(ctx context.Context, dsn, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, "mysqldump", dsn)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump: %w", err)
	}
	return nil
}

func (s *Scheduler) uploadOffsite(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	return s.offsite.Write(ctx, filepath.Base(path), f, st.Size())
}
