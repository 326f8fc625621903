package notify

import "sync"

// Registry хранит не более одного активного канала на пользователя в пределах процесса.
// Состояние живёт только в памяти и теряется при рестарте.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register сохраняет канал пользователя. Если канал уже был (вторая вкладка),
// он молча замещается и не закрывается. Возвращает true, если запись заменена.
func (r *Registry) Register(userID string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.channels[userID]
	r.channels[userID] = ch
	return replaced
}

// Unregister удаляет запись пользователя, если она есть.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.channels, userID)
}

// Release удаляет запись, только если она всё ещё указывает на ch.
// Так закрывшаяся старая вкладка не выкидывает из реестра новую.
func (r *Registry) Release(userID string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.channels[userID]
	if !ok || current != ch {
		return false
	}
	delete(r.channels, userID)
	return true
}

// Lookup возвращает канал пользователя или false, если его нет.
func (r *Registry) Lookup(userID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[userID]
	return ch, ok
}

// Len возвращает количество зарегистрированных пользователей.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.channels)
}
