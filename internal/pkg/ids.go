package pkg

import (
	"fmt"

	"github.com/google/uuid"
)

func GenerateGameID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate game id: %w", err)
	}

	return id.String(), nil
}

// GenerateNewSessionID returns the id handed to a new player.
func GenerateNewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}

	return id.String(), nil
}

// GenerateBotID derives the bot seat id from its game.
func GenerateBotID(gameID string) string {
	return "bot-" + gameID
}
