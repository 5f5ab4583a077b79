package application

import "sync"

// bookingLocks serializa transições por booking (single writer por
// bookingId). O perdedor de uma corrida observa o estado já transitado
// e recebe ErrInvalidTransition em vez de corromper estado. Entradas
// sem goroutines esperando são removidas na liberação, então o mapa não
// cresce com o histórico de bookings.
type bookingLocks struct {
	mu    sync.Mutex
	locks map[string]*bookingLock
}

type bookingLock struct {
	mu   sync.Mutex
	refs int
}

func newBookingLocks() *bookingLocks {
	return &bookingLocks{locks: make(map[string]*bookingLock)}
}

// acquire trava a chave e retorna a função que a libera.
func (l *bookingLocks) acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &bookingLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
