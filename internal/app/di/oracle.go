package di

import (
	"context"
	"os"

	"portfolio_backend/internal/feature/portfolio/usecase"
	"portfolio_backend/internal/platform/gemini"
)

// NewOracle creates the Gemini-backed insight oracle.
// The model is taken from GEMINI_MODEL when set.
func NewOracle(ctx context.Context) (usecase.InsightOracle, error) {
	return gemini.NewClient(ctx, os.Getenv("GEMINI_MODEL"))
}
