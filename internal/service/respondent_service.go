package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
	"github.com/stemsi/survey-backend/internal/validator"
)

// RespondentService registers respondents and guards identifier uniqueness.
type RespondentService struct {
	respondents RespondentStore
	buffer      AnswerBuffer
	publisher   EventPublisher
	log         zerolog.Logger
}

// NewRespondentService creates a new RespondentService. buffer may be nil; a nil
// publisher disables events.
func NewRespondentService(respondents RespondentStore, buffer AnswerBuffer, publisher EventPublisher, log zerolog.Logger) *RespondentService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &RespondentService{
		respondents: respondents,
		buffer:      buffer,
		publisher:   publisher,
		log:         log.With().Str("component", "respondent_service").Logger(),
	}
}

// ValidateIdentifier returns the reason an identifier is malformed, or "" when it is well formed.
func ValidateIdentifier(identifier string) string {
	switch {
	case identifier == "":
		return "identifier is required"
	case !validator.IsDigits(identifier):
		return "identifier must contain digits only"
	case len(identifier) < model.IdentifierMinLen || len(identifier) > model.IdentifierMaxLen:
		return fmt.Sprintf("identifier must be %d to %d digits long", model.IdentifierMinLen, model.IdentifierMaxLen)
	}
	return ""
}

func validateRegistration(name, identifier, program string, semester int) map[string]string {
	fields := make(map[string]string)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		fields["name"] = "name is required"
	case n < model.NameMinLen:
		fields["name"] = fmt.Sprintf("name must be at least %d characters", model.NameMinLen)
	case n > model.NameMaxLen:
		fields["name"] = fmt.Sprintf("name must be at most %d characters", model.NameMaxLen)
	}
	if reason := ValidateIdentifier(identifier); reason != "" {
		fields["identifier"] = reason
	}
	if program == "" {
		fields["program"] = "program is required"
	} else if utf8.RuneCountInString(program) > model.NameMaxLen {
		fields["program"] = fmt.Sprintf("program must be at most %d characters", model.NameMaxLen)
	}
	if semester < model.SemesterMin || semester > model.SemesterMax {
		fields["semester"] = fmt.Sprintf("semester must be between %d and %d", model.SemesterMin, model.SemesterMax)
	}
	return fields
}

// Register validates and stores a new respondent.
func (s *RespondentService) Register(ctx context.Context, name, identifier, program string, semester int) (*model.Respondent, error) {
	name = strings.TrimSpace(name)
	identifier = strings.TrimSpace(identifier)
	program = strings.TrimSpace(program)

	if fields := validateRegistration(name, identifier, program, semester); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	exists, err := s.respondents.ExistsByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("check identifier: %w", err)
	}
	if exists {
		return nil, ErrDuplicateIdentifier
	}

	p := &model.Respondent{
		Name:       name,
		Identifier: identifier,
		Program:    program,
		Semester:   semester,
	}
	if err := s.respondents.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentifier) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("create respondent: %w", err)
	}

	s.log.Info().Int("respondent_id", p.ID).Str("program", p.Program).Msg("Respondent registered")
	return p, nil
}

// CheckIdentifierAvailable reports whether identifier can still be registered.
// A malformed identifier is unavailable and the message carries the reason.
func (s *RespondentService) CheckIdentifierAvailable(ctx context.Context, identifier string) (bool, string, error) {
	identifier = strings.TrimSpace(identifier)
	if reason := ValidateIdentifier(identifier); reason != "" {
		return false, reason, nil
	}

	exists, err := s.respondents.ExistsByIdentifier(ctx, identifier)
	if err != nil {
		return false, "", fmt.Errorf("check identifier: %w", err)
	}
	if exists {
		return false, "identifier is already registered", nil
	}
	return true, "identifier is available", nil
}

// GetByID retrieves a respondent.
func (s *RespondentService) GetByID(ctx context.Context, id int) (*model.Respondent, error) {
	p, err := s.respondents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// Delete removes a respondent together with their response and any answers
// still buffered for an unfinished survey.
func (s *RespondentService) Delete(ctx context.Context, id int) error {
	if err := s.respondents.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if s.buffer != nil {
		if err := s.buffer.ClearAll(ctx, id); err != nil {
			s.log.Warn().Err(err).Int("respondent_id", id).Msg("Failed to clear buffered answers")
		}
	}

	s.log.Info().Int("respondent_id", id).Msg("Respondent deleted")
	if err := s.publisher.Publish(ctx, model.SurveyEvent{Type: model.EventRespondentDeleted, RespondentID: id}); err != nil {
		s.log.Warn().Err(err).Int("respondent_id", id).Msg("Failed to publish respondent deletion")
	}
	return nil
}
