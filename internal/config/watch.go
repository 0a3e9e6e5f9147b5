package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config document whenever it changes on disk and
// invokes onChange with the freshly validated result. It runs until
// stop is closed; watcher errors are reported through onError rather
// than stopping the loop, since a single missed fsnotify event should
// not take down the scanner.
func Watch(stop <-chan struct{}, onChange func(*Config), onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load()
				if err != nil {
					onError(err)
					continue
				}
				onChange(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()

	return nil
}
