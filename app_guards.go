package main

import (
	"errors"

	"notedrop/internal/notes"
)

func (a *App) requireStore() (*notes.Store, error) {
	if a.store == nil {
		return nil, errors.New("note storage is unavailable")
	}
	return a.store, nil
}
