// Package history defines the per-chat prediction history kept by the bot.
package history

import (
	"fmt"
	"time"

	"digitlens-go/domain/recognition"
)

// Record is one answered recognition request.
type Record struct {
	// ID is assigned by the repository on insert
	ID string

	// ChatID identifies the conversation the image came from
	ChatID int64

	Digit         int
	Confidence    float64
	Probabilities [recognition.NumClasses]float64

	// Source describes the input, e.g. "photo" or a document file name
	Source string

	CreatedAt time.Time
}

// NewRecord captures pred for chatID.
func NewRecord(chatID int64, pred *recognition.Prediction, source string, at time.Time) *Record {
	return &Record{
		ChatID:        chatID,
		Digit:         pred.Digit,
		Confidence:    pred.Confidence(),
		Probabilities: pred.Probabilities,
		Source:        source,
		CreatedAt:     at,
	}
}

// Summary renders the record as one line of the /history reply.
func (r *Record) Summary() string {
	return fmt.Sprintf("%s  %d (%.2f%%)  %s",
		r.CreatedAt.Format("2006-01-02 15:04"), r.Digit, r.Confidence*100, r.Source)
}
