// Package storage хранит личные рекорды игроков между перезапусками.
// Сама трасса эфемерна и не сохраняется.
package storage

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Record — личный рекорд игрока.
type Record struct {
	PlayerID    string // Уникальный идентификатор игрока
	Name        string // Имя игрока
	BestSegment int64  // Дальний достигнутый сегмент
	Score       int64  // Счёт на момент рекорда
	UpdatedAt   int64  // Время обновления (Unix)
}

// HighscoreStore — интерфейс хранилища рекордов.
type HighscoreStore interface {
	// Load загружает все рекорды; отсутствие файла не является ошибкой.
	Load(ctx context.Context) (map[string]Record, error)

	// Save атомарно сохраняет все рекорды.
	Save(ctx context.Context, records map[string]Record) error

	// Close закрывает хранилище и освобождает ресурсы.
	Close() error
}

const highscoreFormatVersion = 1

// fileHeader предваряет записи в файле рекордов.
type fileHeader struct {
	Version int
	Count   int
}

// FileStore — файловое хранилище рекордов в формате gob.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore создает хранилище рекордов по указанному пути.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию рекордов: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load загружает рекорды из файла.
func (fs *FileStore) Load(ctx context.Context) (map[string]Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("открытие файла рекордов: %w", err)
	}
	defer f.Close()

	dec := gob.NewDecoder(f)
	var hdr fileHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("чтение заголовка рекордов: %w", err)
	}
	if hdr.Version != highscoreFormatVersion {
		return nil, fmt.Errorf("неизвестная версия файла рекордов: %d", hdr.Version)
	}

	records := make(map[string]Record, hdr.Count)
	for i := 0; i < hdr.Count; i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("чтение записи рекорда: %w", err)
		}
		records[rec.PlayerID] = rec
	}
	return records, nil
}

// Save атомарно сохраняет рекорды: запись во временный файл и переименование.
func (fs *FileStore) Save(ctx context.Context, records map[string]Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp := fs.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("создание временного файла рекордов: %w", err)
	}

	enc := gob.NewEncoder(f)
	hdr := fileHeader{Version: highscoreFormatVersion, Count: len(records)}
	if err := enc.Encode(hdr); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("запись заголовка рекордов: %w", err)
	}
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("запись рекорда: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("закрытие файла рекордов: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("переименование файла рекордов: %w", err)
	}
	return nil
}

// Close закрывает хранилище.
func (fs *FileStore) Close() error { return nil }
