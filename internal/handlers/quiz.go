package handlers

import (
	"errors"
	"net/http"

	"brokerscope/internal/quiz"
)

// FindBrokersQuiz handles POST /api/find-brokers-quiz.
func (p *Public) FindBrokersQuiz(w http.ResponseWriter, r *http.Request) {
	var answers quiz.Answers
	if err := decodeJSON(w, r, &answers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := quiz.FindMatches(r.Context(), p.Brokers, answers)
	if errors.Is(err, quiz.ErrInvalidBracket) {
		writeError(w, http.StatusBadRequest, "deposit must be one of: under-100, 100-500, 500-1000, 1000-plus, any")
		return
	}
	if err != nil {
		serverError(w, r, "find quiz matches", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}
