package models

import "errors"

var (
	ErrEmptyInstrument   = errors.New("instrument is empty")
	ErrUnknownInstrument = errors.New("instrument is not registered")
	ErrThresholdOrder    = errors.New("close_all_below must be <= close_threshold")
)
