package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
)

// probeKey - служебный ключ для проверки доступности хранилища
const probeKey = "__storage_probe__"

// Store - локальное key/value хранилище поверх каталога файлов:
// один ключ = один файл с JSON-значением.
//
// Контракт для вызывающих: ни один метод не паникует и не возвращает error,
// отказы выражаются булевым результатом. Решение о fallback принимает
// вызывающий код, а не хранилище.
type Store struct {
	dir    string
	logger *logrus.Logger
}

func New(dir string, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir возвращает каталог хранилища
func (s *Store) Dir() string {
	return s.dir
}

// path превращает ключ в путь файла. Ключи у нас фиксированного формата
// (см. keys.go), но на всякий случай экранируем разделители
func (s *Store) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

// entry создаёт log entry компонента storage.
// Внутри хранилища логируем не выше Warn: хук ошибок сам пишет в это же
// хранилище, и Error-запись отсюда зациклила бы его.
func (s *Store) entry(key string) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"component": "storage",
		"key":       key,
	})
}

// Available проверяет доступность хранилища циклом запись/чтение/удаление
// служебного ключа. Никогда не возвращает ошибку наружу.
func (s *Store) Available() bool {
	const probeValue = `"probe"`
	if !s.Set(probeKey, probeValue) {
		return false
	}
	got, ok := s.Get(probeKey)
	if !ok || got != probeValue {
		s.entry(probeKey).Warn("storage probe read mismatch")
		return false
	}
	return s.Remove(probeKey)
}

// Get читает строковое значение по ключу. false = ключа нет или чтение
// не удалось
func (s *Store) Get(key string) (string, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.entry(key).WithError(err).Warn("storage read failed")
		}
		return "", false
	}
	return string(data), true
}

// Set атомарно записывает значение и верифицирует его обратным чтением.
// false = запись не прошла или прочитанное не совпало байт в байт.
func (s *Store) Set(key, value string) bool {
	if err := atomic.WriteFile(s.path(key), strings.NewReader(value)); err != nil {
		s.entry(key).WithError(err).Warn("storage write failed")
		return false
	}
	got, ok := s.Get(key)
	if !ok || got != value {
		s.entry(key).Warn("storage write verification failed")
		return false
	}
	return true
}

// Remove удаляет ключ. Отсутствующий ключ не считается ошибкой.
func (s *Store) Remove(key string) bool {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		s.entry(key).WithError(err).Warn("storage remove failed")
		return false
	}
	return true
}

// GetJSON читает и декодирует значение в dst. При отсутствии ключа или
// ошибке разбора dst остаётся нетронутым (значение по умолчанию задаёт
// вызывающий), возвращается false.
func (s *Store) GetJSON(key string, dst any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.entry(key).WithError(err).Warn("storage value is not valid json")
		return false
	}
	return true
}

// SetJSON сериализует значение и записывает его через Set
func (s *Store) SetJSON(key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.entry(key).WithError(err).Warn("storage json marshal failed")
		return false
	}
	return s.Set(key, string(data))
}
