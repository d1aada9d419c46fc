package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkpost/app/repositories"
)

// ErrCancelled is returned when the operator declines a confirmation prompt.
var ErrCancelled = errors.New("operation cancelled")

// createBackupFile opens the destination of a backup. Replaced in tests.
var createBackupFile = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// Maintenance runs the database subcommands against the store named by DatabaseURL.
type Maintenance struct {
	DatabaseURL string
	BackupDir   string
	In          io.Reader
	Out         io.Writer
	Verbose     bool
}

// NewMaintenance returns a Maintenance wired to the process stdio.
func NewMaintenance(databaseURL string) *Maintenance {
	return &Maintenance{
		DatabaseURL: databaseURL,
		BackupDir:   filepath.Join("data", "backups"),
		In:          os.Stdin,
		Out:         os.Stdout,
	}
}

// localPath returns the on-disk location of file based stores.
func (m *Maintenance) localPath() (backend, path string, err error) {
	backend, location, err := repositories.ParseDatabaseURL(m.DatabaseURL)
	if err != nil {
		return "", "", err
	}
	if backend == repositories.BackendPostgres || (backend == repositories.BackendBadger && location == "memory") {
		return backend, "", nil
	}
	if backend == repositories.BackendSQLite {
		location = strings.SplitN(location, "?", 2)[0]
	}
	return backend, location, nil
}

func (m *Maintenance) confirm(prompt string) bool {
	fmt.Fprintf(m.Out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(m.In).ReadString('\n')
	response := strings.TrimSpace(line)
	return response == "y" || response == "Y"
}

// Init creates the database and, for relational backends, its tables.
func (m *Maintenance) Init() error {
	_, path, err := m.localPath()
	if err != nil {
		return err
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintln(m.Out, "Database already exists. Use 'clean' first if you want to reinitialize.")
			return nil
		}
	}

	store, err := repositories.Open(m.DatabaseURL, m.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.Close(); err != nil {
		return err
	}
	fmt.Fprintln(m.Out, "Database initialized successfully")
	return nil
}

// Clean removes the database files after confirmation.
func (m *Maintenance) Clean(assumeYes bool) error {
	backend, path, err := m.localPath()
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("clean is not supported for %s databases", backend)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(m.Out, "Database is already clean (does not exist)")
		return nil
	}

	if !assumeYes && !m.confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(m.Out, "Operation cancelled")
		return ErrCancelled
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	fmt.Fprintln(m.Out, "Database cleaned successfully")
	return nil
}

type backupStore interface {
	repositories.Store
	Backup(w io.Writer) error
	Load(r io.Reader) error
}

func (m *Maintenance) openBackupStore() (backupStore, error) {
	backend, path, err := m.localPath()
	if err != nil {
		return nil, err
	}
	if backend != repositories.BackendBadger || path == "" {
		return nil, fmt.Errorf("backup and restore need an on-disk badger database, got %q", m.DatabaseURL)
	}
	store, err := repositories.NewBadgerStore(path, m.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// Backup writes a full backup to file, or to a timestamped file in BackupDir
// when file is empty. It returns the path written.
func (m *Maintenance) Backup(file string) (string, error) {
	_, path, err := m.localPath()
	if err != nil {
		return "", err
	}
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Fprintln(m.Out, "No database exists to backup")
			return "", fmt.Errorf("database %s does not exist", path)
		}
	}

	store, err := m.openBackupStore()
	if err != nil {
		return "", err
	}
	defer store.Close()

	if file == "" {
		if err := os.MkdirAll(m.BackupDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create backup directory: %w", err)
		}
		file = filepath.Join(m.BackupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}

	f, err := createBackupFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := store.Backup(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	fmt.Fprintf(m.Out, "Database backed up successfully to %s\n", file)
	return file, nil
}

// Restore replaces the database with the contents of a backup file.
func (m *Maintenance) Restore(file string, assumeYes bool) (err error) {
	fi, err := os.Stat(file)
	if os.IsNotExist(err) {
		fmt.Fprintf(m.Out, "Backup file does not exist: %s\n", file)
		return err
	}
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", file)
	}

	backend, path, err := m.localPath()
	if err != nil {
		return err
	}
	if backend != repositories.BackendBadger || path == "" {
		return fmt.Errorf("backup and restore need an on-disk badger database, got %q", m.DatabaseURL)
	}

	if _, err := os.Stat(path); err == nil {
		if !assumeYes && !m.confirm("Existing database found. Do you want to replace it?") {
			fmt.Fprintln(m.Out, "Operation cancelled")
			return ErrCancelled
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}

	store, err := m.openBackupStore()
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred during restore: %v", r)
		}
	}()
	if err := store.Load(f); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	fmt.Fprintln(m.Out, "Database restored successfully")
	return nil
}
