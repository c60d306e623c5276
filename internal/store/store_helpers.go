package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var session Session
	var slideCount sql.NullInt64
	var pdfURL, completedAt sql.NullString
	var createdAt string
	err := scanner.Scan(&session.ID, &session.StudentID, &slideCount, &pdfURL,
		&session.Status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if slideCount.Valid {
		value := int(slideCount.Int64)
		session.SlideCount = &value
	}
	session.PDFURL = pdfURL.String
	session.CreatedAt = parseTimestamp(createdAt)
	if completedAt.Valid {
		parsed := parseTimestamp(completedAt.String)
		session.CompletedAt = &parsed
	}
	return &session, nil
}

func scanConversation(scanner interface{ Scan(dest ...any) error }) (*Conversation, error) {
	var conv Conversation
	var slideNumber sql.NullInt64
	var spokenAt sql.NullString
	var createdAt string
	err := scanner.Scan(&conv.ID, &conv.SessionID, &conv.Role, &conv.Content,
		&slideNumber, &spokenAt, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	if slideNumber.Valid {
		value := int(slideNumber.Int64)
		conv.SlideNumber = &value
	}
	conv.SpokenAt = spokenAt.String
	conv.CreatedAt = parseTimestamp(createdAt)
	return &conv, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimestamp(value string) time.Time {
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed
	}
	return time.Time{}
}
