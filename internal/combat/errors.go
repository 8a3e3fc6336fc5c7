package combat

import "errors"

var (
	ErrUnknownAbility = errors.New("unknown ability")
	ErrInvalidConfig  = errors.New("invalid boss config")
)
