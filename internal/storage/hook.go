package storage

import (
	"time"

	"github.com/sirupsen/logrus"
)

// maxErrorLogEntries - сколько последних ошибок держим под ключом
// taskManagerErrorLogs
const maxErrorLogEntries = 100

// errorLogRecord - одна запись журнала ошибок
type errorLogRecord struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// ErrorLogHook - logrus-хук, который дублирует ошибки в локальное
// хранилище (ключ taskManagerErrorLogs), чтобы их можно было посмотреть
// без доступа к stdout сервиса.
//
// Хук пишет через Store, а Store о своих отказах логирует на уровне Warn -
// поэтому цикла logger -> hook -> logger здесь нет.
type ErrorLogHook struct {
	store *Store
}

func NewErrorLogHook(store *Store) *ErrorLogHook {
	return &ErrorLogHook{store: store}
}

func (h *ErrorLogHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
}

func (h *ErrorLogHook) Fire(entry *logrus.Entry) error {
	var records []errorLogRecord
	h.store.GetJSON(KeyErrorLogs, &records)

	fields := make(map[string]any, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			fields[k] = err.Error()
			continue
		}
		fields[k] = v
	}

	records = append(records, errorLogRecord{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
		Fields:  fields,
	})
	if len(records) > maxErrorLogEntries {
		records = records[len(records)-maxErrorLogEntries:]
	}

	// Отказ записи журнала ошибок сам по себе не ошибка для logrus
	h.store.SetJSON(KeyErrorLogs, records)
	return nil
}
