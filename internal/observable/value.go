// Package observable содержит контейнер состояния с рассылкой снимков подписчикам
package observable

import "sync"

// Value хранит текущее значение и рассылает каждый новый снимок подписчикам.
// Медленный подписчик может пропустить промежуточные снимки, но всегда получает последний.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]chan T
	nextID int
}

// New создает контейнер с начальным значением
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get возвращает текущее значение
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set заменяет значение и уведомляет подписчиков
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
	v.publish()
}

// Update изменяет значение функцией fn под блокировкой и уведомляет подписчиков
func (v *Value[T]) Update(fn func(*T)) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.value)
	v.publish()
	return v.value
}

// Subscribe возвращает канал снимков и функцию отписки.
// Текущее значение доступно в канале сразу после подписки.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	ch <- v.value
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
}

// publish должен вызываться под мьютексом
func (v *Value[T]) publish() {
	for _, ch := range v.subs {
		select {
		case ch <- v.value:
		default:
			// Выбрасываем устаревший снимок и кладем свежий
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v.value:
			default:
			}
		}
	}
}
