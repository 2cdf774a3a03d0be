package wizard

import (
	"context"

	"document-workflow/internal/attachments"
	"document-workflow/internal/common/errors"
	"document-workflow/internal/models"
)

// AddFiles attaches a batch of files. A batch over the limit is rejected as a
// whole with a single warning.
func (s *Session) AddFiles(ctx context.Context, files []attachments.File) ([]attachments.Item, error) {
	defer s.flush(ctx)

	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	// Preview staging may hit object storage; the manager has its own lock.
	items, err := s.files.Add(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.files.Close(ctx)
		return nil, ErrSessionClosed
	}
	if s.submitting {
		// The payload was taken before these files landed.
		if err == nil {
			for range items {
				_ = s.files.Remove(ctx, s.files.Len()-1)
			}
		}
		return nil, ErrSubmissionInProgress
	}
	if err != nil {
		level := models.LevelError
		if errors.HasCode(err, errors.ErrCodeAttachmentLimit) {
			level = models.LevelWarning
		}
		msg := err.Error()
		if se, ok := errors.As(err); ok {
			msg = se.Message
		}
		s.emit(level, string(errors.CodeOf(err)), msg)
		return nil, err
	}
	return items, nil
}

// RemoveFile detaches the file at index and releases its preview.
func (s *Session) RemoveFile(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.files.Remove(ctx, index)
}

// DescribeFile sets a file's description. An empty or overlong text is kept
// and reported as a validation.FieldError.
func (s *Session) DescribeFile(index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.files.UpdateDescription(index, text)
}

// Files returns the attached files.
func (s *Session) Files() []attachments.Item {
	return s.files.Items()
}
