package core

import "errors"

var (
	ErrNotFound         = errors.New("homepages: not found")
	ErrTemplateNotFound = errors.New("homepages: template not found")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTemplateNotFound)
}
