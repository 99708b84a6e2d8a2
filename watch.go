package conservgc

import (
	"github.com/fsnotify/fsnotify"
)

// triggerWatcher wraps a single fsnotify.Watcher dedicated to one trigger
// file, for this package's one use: a Write event on the watched path
// forces a collection.
type triggerWatcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// WatchTriggerFile watches path with fsnotify on the default Runtime; a
// Write event on it invokes CollectOnce. The returned stop function closes
// the watcher and stops its goroutine; it is safe to call more than once.
func WatchTriggerFile(path string) (stop func(), err error) {
	return defaultRuntime().WatchTriggerFile(path)
}

// WatchTriggerFile is the Runtime method backing the package-level
// WatchTriggerFile.
func (rt *Runtime) WatchTriggerFile(path string) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	tw := &triggerWatcher{w: w, done: make(chan struct{})}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Write != 0 {
					rt.CollectOnce()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-tw.done:
				return
			}
		}
	}()

	rt.mu.Lock()
	rt.watcher = tw
	rt.mu.Unlock()

	once := make(chan struct{})
	stop = func() {
		select {
		case <-once:
			return
		default:
			close(once)
		}
		close(tw.done)
		w.Close()
	}
	return stop, nil
}
