package main

import (
	tty "github.com/mattn/go-tty"
)

const keyCtrlC = 3

// keyboard delivers single keystrokes from the controlling terminal, which
// is put in raw mode until close is called.
type keyboard struct {
	tty     *tty.TTY
	restore func() error
	keys    chan rune
}

func openKeyboard() (*keyboard, error) {
	t, err := tty.Open()
	if err != nil {
		return nil, err
	}
	restore, err := t.Raw()
	if err != nil {
		t.Close()
		return nil, err
	}

	k := &keyboard{tty: t, restore: restore, keys: make(chan rune)}
	go func() {
		defer close(k.keys)
		for {
			r, err := t.ReadRune()
			if err != nil {
				return
			}
			k.keys <- r
		}
	}()
	return k, nil
}

func (k *keyboard) close() {
	_ = k.restore()
	_ = k.tty.Close()
}
