package service

import (
	"sort"
	"sync"

	"github.com/mmhelfer/teambot/internal/domain"
)

// lockTable serializa workflows sobre la misma key (tipo, nombre): dos
// usuarios disparando create/edit/delete concurrentes sobre el mismo team
// se ejecutan uno después del otro, no entrelazados. El segundo relee el
// registro al entrar, así que un delete previo se manifiesta como not-found.
// Create y rename toman además la key del nombre en ambas particiones, para
// que el chequeo de duplicados y la publicación de la key nueva no corran
// contra otro workflow reservando el mismo nombre.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: map[string]*sync.Mutex{}}
}

func lockKey(tt domain.TeamType, name string) string {
	return string(tt) + "/" + name
}

// acquire bloquea la key y devuelve el unlock. Los mutex por key nunca se
// purgan: el universo de teams es chico y acotado.
func (lt *lockTable) acquire(tt domain.TeamType, name string) func() {
	return lt.acquireKeys(lockKey(tt, name))
}

// acquireKeys toma varias keys de una vez, siempre en orden lexicográfico y
// sin repetidas, así dos workflows que comparten keys no pueden abrazarse.
func (lt *lockTable) acquireKeys(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)

	locks := make([]*sync.Mutex, len(uniq))
	lt.mu.Lock()
	for i, k := range uniq {
		l, ok := lt.locks[k]
		if !ok {
			l = &sync.Mutex{}
			lt.locks[k] = l
		}
		locks[i] = l
	}
	lt.mu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
