package service

import (
	"context"
	"fmt"
	"math/rand/v2"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	usageCodeLength = 8
	// maxCodeAttempts bounds the collision-retry loop. After the bound the
	// last draw is accepted unchecked; the unique indexes on the students
	// table reject the residual duplicate at create time.
	maxCodeAttempts = 10
)

func randomMatricula() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

func randomUsageCode() string {
	b := make([]byte, usageCodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// uniqueMatricula draws enrollment-number candidates, probing the store for
// collisions, until a free one is found or the retry bound is exhausted.
func (s *Service) uniqueMatricula(ctx context.Context) (string, error) {
	candidate := randomMatricula()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		exists, err := s.store.MatriculaExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe matricula: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		s.metrics.IncCodeRetry()
		candidate = randomMatricula()
	}
	return candidate, nil
}

// uniqueUsageCode is the usage-code counterpart of uniqueMatricula.
func (s *Service) uniqueUsageCode(ctx context.Context) (string, error) {
	candidate := randomUsageCode()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		exists, err := s.store.UsageCodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe usage code: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		s.metrics.IncCodeRetry()
		candidate = randomUsageCode()
	}
	return candidate, nil
}
