package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sun1tar/task-planner/internal/models"
)

// Session - авторизованная сессия пользователя. Хранится только в памяти
// процесса: перезапуск сервиса разлогинивает, данные при этом не теряются
// (они неймспейсятся по user id, а не по сессии).
type Session struct {
	ID        string
	UserID    string
	Username  string
	CSRFToken string
	ExpiresAt time.Time
}

// Manager выдаёт и проверяет сессии. Проверка - локальный вызов внутри
// процесса, внешнего сервиса авторизации здесь нет.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

func NewManager(ttl time.Duration, logger *logrus.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create выдаёт новую сессию с CSRF-токеном
func (m *Manager) Create(user *models.User) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := &Session{
		ID:        "s_" + uuid.New().String(),
		UserID:    user.ID,
		Username:  user.Username,
		CSRFToken: "csrf_" + uuid.New().String(),
		ExpiresAt: m.now().Add(m.ttl),
	}
	m.sessions[session.ID] = session

	m.logger.WithFields(logrus.Fields{
		"component": "auth",
		"user_id":   user.ID,
	}).Info("session created")
	return session
}

// Verify проверяет сессию по id. Просроченные сессии удаляются на месте.
func (m *Manager) Verify(sessionID string) (*Session, bool) {
	if sessionID == "" {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if m.now().After(session.ExpiresAt) {
		delete(m.sessions, sessionID)
		m.logger.WithFields(logrus.Fields{
			"component": "auth",
			"user_id":   session.UserID,
		}).Debug("session expired")
		return nil, false
	}
	return session, true
}

// Revoke снимает сессию (logout)
func (m *Manager) Revoke(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
