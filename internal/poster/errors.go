package poster

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrAuth             = errors.New("platform authentication failed")
	ErrRateLimited      = errors.New("platform rate limit exceeded")
	ErrDuplicateContent = errors.New("platform rejected duplicate content")
	ErrNetworkTimeout   = errors.New("platform request timed out")
)

// APIError wraps an unclassified platform response.
type APIError struct {
	Platform   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Platform, e.StatusCode, e.Body)
}

// classifyStatus maps common HTTP statuses onto the error taxonomy.
// Returns nil for statuses the caller considers success.
func classifyStatus(platform string, status int, body string, okStatuses ...int) error {
	for _, ok := range okStatuses {
		if status == ok {
			return nil
		}
	}
	switch status {
	case 401, 403:
		return fmt.Errorf("%w: %s status %d", ErrAuth, platform, status)
	case 429:
		return fmt.Errorf("%w: %s status %d", ErrRateLimited, platform, status)
	}
	return &APIError{Platform: platform, StatusCode: status, Body: body}
}

// wrapTransport folds transport-level failures into the taxonomy.
func wrapTransport(platform string, err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrNetworkTimeout, platform, err)
	}
	return fmt.Errorf("%s request: %w", platform, err)
}
