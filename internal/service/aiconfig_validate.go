package service

import (
	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/tidwall/gjson"
)

func invalidField(field, reason string) error {
	return &apperror.ConfigValidationError{Field: field, Reason: reason}
}

// validateAIConfig checks the structure of a raw ai-config.json document
// before it is decoded. The first failing check wins.
func validateAIConfig(root gjson.Result) error {
	if !root.IsObject() {
		return invalidField("$", "not an object")
	}

	providers := root.Get("providers")
	if !providers.IsObject() {
		return invalidField("providers", "missing or invalid providers")
	}

	defaultProvider := root.Get("defaultProvider")
	if defaultProvider.Type != gjson.String {
		return invalidField("defaultProvider", "must be a string")
	}

	if !root.Get("fallbackProviders").IsArray() {
		return invalidField("fallbackProviders", "must be an array")
	}

	difficulties := root.Get("difficulties")
	if !difficulties.IsObject() {
		return invalidField("difficulties", "missing or invalid difficulties")
	}

	for _, level := range entity.RequiredDifficulties {
		if !difficulties.Get(gjson.Escape(level)).IsObject() {
			return invalidField("difficulties."+level, "missing or invalid difficulty level")
		}
	}

	if !providers.Get(gjson.Escape(defaultProvider.String())).IsObject() {
		return invalidField("defaultProvider", "default provider not found in providers")
	}

	if !root.Get("moveDelay").IsObject() {
		return invalidField("moveDelay", "missing or invalid moveDelay")
	}

	if !root.Get("errorMessages").IsObject() {
		return invalidField("errorMessages", "missing or invalid errorMessages")
	}

	return nil
}
