package main

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"heartrisk/predict"
)

// watchArtifact invalidates the predictor if the model artifact changes on
// disk after load. The model is loaded once per process; a changed file means
// an unknown artifact version, and scoring against it would silently skew
// results. Refusing requests is the only safe response.
func watchArtifact(path string, predictor *predict.Predictor) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors and atomic writes replace the file,
	// which would silently drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Printf("Model artifact %s changed (%s), refusing further predictions", path, event.Op)
					predictor.MarkStale()
					// The watch is one-shot; release it so nothing is left
					// undrained for the rest of the process lifetime.
					watcher.Close()
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Artifact watcher error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
