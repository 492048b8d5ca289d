package domain

import "errors"

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrInvalidInput        = errors.New("invalid submission input")
	ErrInvalidVideoURL     = errors.New("invalid video url")
)
