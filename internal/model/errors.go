package model

import "errors"

// ErrNotFound : запись отсутствует в хранилище
var ErrNotFound = errors.New("запись не найдена")
