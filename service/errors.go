package service

import (
	"errors"

	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"
)

var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrInvalidSessionID         = errors.New("invalid session id")
	ErrProjectNotFound          = errors.New("project not found")
	ErrMissingMetrics           = errors.New("project has no evaluable metrics")
	ErrComplianceResultNotFound = errors.New("compliance result not found, run the check first")
	ErrAllStrategiesFailed      = errors.New("all retrieval strategies failed")
	ErrKnowledgeUnavailable     = errors.New("knowledge graph unavailable")
	ErrLLMUnavailable           = errors.New("language model unavailable")
	ErrMalformedOutput          = errors.New("malformed model output")

	ErrArticleNotFound = repository.ErrArticleNotFound
	ErrUnsafeQuery     = repository.ErrUnsafeQuery
)
