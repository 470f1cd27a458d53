package tween

import "github.com/ivlev/carrytales/internal/task"

// Starter starts a tween. The scene implements it.
type Starter interface {
	Tween(cfg Config) *Tween
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(cfg Config) *Tween

// Tween calls f(cfg).
func (f StarterFunc) Tween(cfg Config) *Tween {
	return f(cfg)
}

// Await starts the tween described by cfg and returns a task that resolves
// when the tween completes. A caller-supplied OnComplete still runs, and
// runs before the task resolves. A tween that is killed or repeats forever
// never resolves its task.
func Await(s Starter, cfg Config) *task.Task {
	t, resolve := task.New()
	user := cfg.OnComplete
	cfg.OnComplete = func() {
		if user != nil {
			user()
		}
		resolve()
	}
	s.Tween(cfg)
	return t
}
