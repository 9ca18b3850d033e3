// Package chat builds the conversation list shown on a user's chat screen:
// one summary per counterpart with the latest message as preview.
package chat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Aggregator derives conversation summaries from the message and user tables.
type Aggregator struct {
	messages types.MessageTable
	users    types.UserTable
}

// NewAggregator returns an Aggregator reading from the given tables.
func NewAggregator(messages types.MessageTable, users types.UserTable) *Aggregator {
	return &Aggregator{messages: messages, users: users}
}

// Conversations returns one summary per distinct counterpart of userID,
// most recent conversation first. A counterpart whose profile is gone is
// summarized with an empty name.
func (a *Aggregator) Conversations(userID int64) ([]types.ConversationSummary, error) {
	msgs, err := a.messages.Involving(userID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for user %d: %w", userID, err)
	}

	seen := make(map[int64]int)
	summaries := []types.ConversationSummary{}
	for _, m := range msgs {
		other := m.Counterpart(userID)
		if i, ok := seen[other]; ok {
			if m.RecipientID == userID && !m.IsRead {
				summaries[i].Unread++
			}
			continue
		}

		summary, err := a.summarize(userID, other)
		if err != nil {
			return nil, err
		}
		if m.RecipientID == userID && !m.IsRead {
			summary.Unread = 1
		}
		seen[other] = len(summaries)
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].PreviewAt.After(summaries[j].PreviewAt)
	})
	return summaries, nil
}

func (a *Aggregator) summarize(userID, other int64) (types.ConversationSummary, error) {
	summary := types.ConversationSummary{CounterpartID: other}

	profile, err := a.users.Get(other)
	switch {
	case err == nil:
		summary.CounterpartName = profile.DisplayName
		summary.CounterpartPhoto = profile.ProfilePhotoURL
	case errors.Is(err, types.ErrNotFound):
	default:
		return summary, fmt.Errorf("loading user %d: %w", other, err)
	}

	last, err := a.messages.LastBetween(userID, other)
	if err != nil {
		return summary, fmt.Errorf("loading last message with user %d: %w", other, err)
	}
	summary.PreviewText = last.Content
	summary.PreviewAt = last.SentAt
	return summary, nil
}
